package device

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ChristopherJMiller/nutune/internal/shared"
)

// Device is a block device partition that can hold a music library.
type Device struct {
	Name       string `json:"name"`        // Kernel name, e.g. sdb1
	Label      string `json:"label"`       // Filesystem label
	MountPoint string `json:"mount_point"` // Empty when not mounted
	FSType     string `json:"fstype"`
	SizeBytes  int64  `json:"size_bytes"`
	FreeBytes  int64  `json:"free_bytes"`
	Hotplug    bool   `json:"hotplug"`
	StableID   string `json:"stable_id"`
}

// DisplayLabel returns the filesystem label or the kernel name when the
// volume is unlabeled.
func (d Device) DisplayLabel() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// Mounted reports whether the device has a usable mount point.
func (d Device) Mounted() bool {
	return d.MountPoint != ""
}

// blockDevice mirrors one entry of `lsblk --json` output. Children nest
// partitions under their disk.
type blockDevice struct {
	Name       string        `json:"name"`
	Label      string        `json:"label"`
	MountPoint string        `json:"mountpoint"`
	Size       int64         `json:"size"`
	FSType     string        `json:"fstype"`
	Hotplug    bool          `json:"hotplug"`
	FSAvail    int64         `json:"fsavail"`
	FSSize     int64         `json:"fssize"`
	Children   []blockDevice `json:"children"`
}

type lsblkOutput struct {
	BlockDevices []blockDevice `json:"blockdevices"`
}

// StableID derives an identifier for a volume that survives replugging
// and renumbering: a hash of the things that don't change when the
// kernel assigns a different sdX name.
func StableID(label string, size int64, fstype string) string {
	sum := sha256.Sum256([]byte(label + "|" + strconv.FormatInt(size, 10) + "|" + fstype))
	return fmt.Sprintf("%x", sum[:6])
}

// listBlockDevices shells out to lsblk for the block device tree.
// Parsing its JSON output beats scraping column text and avoids a cgo
// or root-only dependency for something the OS already answers.
func listBlockDevices(ctx context.Context) ([]blockDevice, error) {
	cmd := exec.CommandContext(ctx, "lsblk", "-J", "-b", "-o", "NAME,LABEL,MOUNTPOINT,SIZE,FSTYPE,HOTPLUG,FSAVAIL,FSSIZE")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running lsblk: %w", err)
	}
	return parseLsblk(out)
}

func parseLsblk(data []byte) ([]blockDevice, error) {
	var parsed lsblkOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing lsblk output: %w", err)
	}
	return parsed.BlockDevices, nil
}

// flatten walks the device tree depth-first, carrying the parent's
// hotplug flag down to its partitions.
func flatten(devices []blockDevice, parentHotplug bool) []blockDevice {
	var flat []blockDevice
	for _, d := range devices {
		hotplug := d.Hotplug || parentHotplug
		entry := d
		entry.Hotplug = hotplug
		entry.Children = nil
		flat = append(flat, entry)
		flat = append(flat, flatten(d.Children, hotplug)...)
	}
	return flat
}

// userMountPrefixes are where desktop automounters and admins put
// removable media. A mount under one of these counts as removable even
// when the hotplug flag is unset (some USB bridges misreport it).
var userMountPrefixes = []string{"/run/media/", "/media/", "/mnt/", "/mnt"}

func underUserMount(mountPoint string) bool {
	for _, prefix := range userMountPrefixes {
		if mountPoint == strings.TrimSuffix(prefix, "/") || strings.HasPrefix(mountPoint, prefix) {
			return true
		}
	}
	return false
}

func isMountedRemovable(d blockDevice) bool {
	if d.MountPoint == "" || d.MountPoint == "[SWAP]" {
		return false
	}
	if strings.HasPrefix(d.MountPoint, "/boot") {
		return false
	}
	return d.Hotplug || underUserMount(d.MountPoint)
}

func isUnmountedCandidate(d blockDevice) bool {
	return d.Hotplug && d.FSType != "" && d.MountPoint == ""
}

func toDevice(d blockDevice) Device {
	size := d.FSSize
	if size == 0 {
		size = d.Size
	}
	return Device{
		Name:       d.Name,
		Label:      d.Label,
		MountPoint: d.MountPoint,
		FSType:     d.FSType,
		SizeBytes:  size,
		FreeBytes:  d.FSAvail,
		Hotplug:    d.Hotplug,
		StableID:   StableID(d.Label, d.Size, d.FSType),
	}
}

func mountedFrom(devices []blockDevice) []Device {
	var result []Device
	for _, d := range flatten(devices, false) {
		if isMountedRemovable(d) {
			result = append(result, toDevice(d))
		}
	}
	return result
}

func unmountedFrom(devices []blockDevice) []Device {
	var result []Device
	for _, d := range flatten(devices, false) {
		if isUnmountedCandidate(d) {
			result = append(result, toDevice(d))
		}
	}
	return result
}

// Scan returns mounted removable volumes.
func Scan(ctx context.Context) ([]Device, error) {
	devices, err := listBlockDevices(ctx)
	if err != nil {
		return nil, err
	}
	return mountedFrom(devices), nil
}

// ScanUnmounted returns removable volumes that carry a filesystem but
// are not mounted yet. These can be handed to Mount.
func ScanUnmounted(ctx context.Context) ([]Device, error) {
	devices, err := listBlockDevices(ctx)
	if err != nil {
		return nil, err
	}
	return unmountedFrom(devices), nil
}

// Find resolves an identifier to a device, searching mounted volumes
// first and then unmounted candidates. The identifier can be a stable
// ID, a filesystem label, a kernel name, or a mount point.
func Find(ctx context.Context, identifier string) (*Device, error) {
	devices, err := listBlockDevices(ctx)
	if err != nil {
		return nil, err
	}

	for _, group := range [][]Device{mountedFrom(devices), unmountedFrom(devices)} {
		for _, d := range group {
			if d.StableID == identifier || d.Label == identifier || d.Name == identifier || d.MountPoint == identifier {
				return &d, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrDeviceNotFound, identifier)
}
