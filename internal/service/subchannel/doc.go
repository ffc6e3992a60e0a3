// Package subchannel implements the sub-channel directory: creating,
// editing and removing UTM attribution rules under a channel, with every
// write gated by the overlap validator.
//
// Writes for one parent channel are serialized with a distributed lock so
// two concurrent creates cannot both pass validation against a stale
// directory. The service depends on repository interfaces defined in this
// package and should never import from api/.
//
// Repository implementations live in repository/postgres/.
package subchannel
