package device

import "testing"

// lsblkFixture mirrors real `lsblk -J -b` output: an internal NVMe disk
// with root and boot partitions, a mounted USB stick, and an unmounted
// SD card.
const lsblkFixture = `{
  "blockdevices": [
    {
      "name": "nvme0n1", "label": null, "mountpoint": null, "size": 512110190592,
      "fstype": null, "hotplug": false, "fsavail": null, "fssize": null,
      "children": [
        {"name": "nvme0n1p1", "label": null, "mountpoint": "/boot/efi", "size": 536870912, "fstype": "vfat", "hotplug": false, "fsavail": 200000000, "fssize": 500000000},
        {"name": "nvme0n1p2", "label": "root", "mountpoint": "/", "size": 511560000000, "fstype": "ext4", "hotplug": false, "fsavail": 100000000000, "fssize": 500000000000},
        {"name": "nvme0n1p3", "label": null, "mountpoint": "[SWAP]", "size": 8000000000, "fstype": "swap", "hotplug": false, "fsavail": null, "fssize": null}
      ]
    },
    {
      "name": "sdb", "label": null, "mountpoint": null, "size": 32000000000,
      "fstype": null, "hotplug": true, "fsavail": null, "fssize": null,
      "children": [
        {"name": "sdb1", "label": "WALKMAN", "mountpoint": "/run/media/alice/WALKMAN", "size": 31900000000, "fstype": "exfat", "hotplug": true, "fsavail": 20000000000, "fssize": 31800000000}
      ]
    },
    {
      "name": "sdc", "label": null, "mountpoint": null, "size": 64000000000,
      "fstype": null, "hotplug": true, "fsavail": null, "fssize": null,
      "children": [
        {"name": "sdc1", "label": "SDCARD", "mountpoint": null, "size": 63900000000, "fstype": "vfat", "hotplug": true, "fsavail": null, "fssize": null}
      ]
    }
  ]
}`

func fixtureDevices(t *testing.T) []blockDevice {
	t.Helper()
	devices, err := parseLsblk([]byte(lsblkFixture))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return devices
}

func TestParseLsblk(t *testing.T) {
	devices := fixtureDevices(t)
	if len(devices) != 3 {
		t.Fatalf("top-level devices = %d, want 3", len(devices))
	}
	if len(devices[0].Children) != 3 {
		t.Errorf("nvme children = %d, want 3", len(devices[0].Children))
	}

	t.Run("garbage input", func(t *testing.T) {
		if _, err := parseLsblk([]byte("nope")); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestMountedFrom(t *testing.T) {
	mounted := mountedFrom(fixtureDevices(t))

	if len(mounted) != 1 {
		t.Fatalf("mounted removable = %d, want 1: %+v", len(mounted), mounted)
	}
	d := mounted[0]
	if d.Name != "sdb1" || d.Label != "WALKMAN" {
		t.Errorf("device = %+v", d)
	}
	if d.MountPoint != "/run/media/alice/WALKMAN" {
		t.Errorf("mount point = %q", d.MountPoint)
	}
	if d.SizeBytes != 31800000000 || d.FreeBytes != 20000000000 {
		t.Errorf("capacity = %d/%d", d.FreeBytes, d.SizeBytes)
	}
	if d.StableID == "" || len(d.StableID) != 12 {
		t.Errorf("stable id = %q", d.StableID)
	}
}

func TestMountedFromExcludesSystemMounts(t *testing.T) {
	// A removable device mounted under /boot must not be offered as a
	// sync target, nor swap, nor the root filesystem.
	for _, d := range mountedFrom(fixtureDevices(t)) {
		switch d.Name {
		case "nvme0n1p1", "nvme0n1p2", "nvme0n1p3":
			t.Errorf("system partition %s classified as removable", d.Name)
		}
	}
}

func TestUnmountedFrom(t *testing.T) {
	unmounted := unmountedFrom(fixtureDevices(t))

	if len(unmounted) != 1 {
		t.Fatalf("unmounted candidates = %d, want 1: %+v", len(unmounted), unmounted)
	}
	if unmounted[0].Name != "sdc1" || unmounted[0].Label != "SDCARD" {
		t.Errorf("device = %+v", unmounted[0])
	}
}

func TestUnderUserMount(t *testing.T) {
	cases := []struct {
		mountPoint string
		want       bool
	}{
		{"/run/media/alice/STICK", true},
		{"/media/usb0", true},
		{"/mnt/music", true},
		{"/mnt", true},
		{"/", false},
		{"/home/alice/music", false},
	}
	for _, tc := range cases {
		if got := underUserMount(tc.mountPoint); got != tc.want {
			t.Errorf("underUserMount(%q) = %v, want %v", tc.mountPoint, got, tc.want)
		}
	}
}

func TestStableID(t *testing.T) {
	id := StableID("WALKMAN", 31900000000, "exfat")

	if len(id) != 12 {
		t.Errorf("id length = %d, want 12", len(id))
	}
	if id != StableID("WALKMAN", 31900000000, "exfat") {
		t.Error("id not deterministic")
	}
	if id == StableID("WALKMAN", 31900000000, "vfat") {
		t.Error("id ignores fstype")
	}
	if id == StableID("SDCARD", 31900000000, "exfat") {
		t.Error("id ignores label")
	}
}
