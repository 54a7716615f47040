// Package device observes the target block device. The Monitor answers the
// single question the supervisor asks each cycle: is the device present, and
// where is it mounted right now. A netlink Watcher supplements polling by
// nudging the supervisor as soon as the kernel reports a block-device change.
package device
