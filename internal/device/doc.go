// Package device finds, mounts, watches, and locks removable storage.
//
// Detection shells out to lsblk for the block device tree and applies
// heuristics to tell music players and USB sticks apart from system
// disks. Mounting goes through udisks2 so no elevated privileges are
// needed. Watch subscribes to kernel udev events for plug/unplug
// notifications, and OpenVolume takes a per-volume advisory lock so
// concurrent syncs cannot interleave writes.
package device
