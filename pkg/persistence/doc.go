// Package persistence stores simulated bus state that must survive a
// restart of the device daemon: which node ids are on the bus and the
// parameters each node has burned to flash.
package persistence
