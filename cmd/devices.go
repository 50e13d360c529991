package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/ChristopherJMiller/nutune/internal/device"
	"github.com/ChristopherJMiller/nutune/internal/repositories"
	"github.com/ChristopherJMiller/nutune/internal/shared"
)

// Devices lists mounted and unmounted removable devices. Every scan
// upserts what it finds into the device registry so devices keep their
// friendly names across replugs.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("watch") {
		return r.watchDevices(ctx)
	}

	mounted, err := device.Scan(ctx)
	if err != nil {
		return fmt.Errorf("device scan failed: %w", err)
	}
	unmounted, err := device.ScanUnmounted(ctx)
	if err != nil {
		return fmt.Errorf("device scan failed: %w", err)
	}

	names := r.registerDevices(append(mounted, unmounted...))

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"mounted":   mounted,
			"unmounted": unmounted,
		}, true)
	}

	detailed := cmd.Bool("detailed")

	if len(mounted) == 0 && len(unmounted) == 0 {
		return r.writePlain("No removable devices found.\n")
	}

	if len(mounted) > 0 {
		r.writePlain("Mounted\n%s\n", renderDeviceTable(mounted, names, detailed))
	}
	if len(unmounted) > 0 {
		r.writePlain("Not mounted\n%s\n", renderDeviceTable(unmounted, names, detailed))
	}
	return nil
}

// DevicesRename assigns a friendly name to a registered device.
func (r *Runner) DevicesRename(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	name := cmd.StringArg("name")
	if id == "" || name == "" {
		return fmt.Errorf("%w: usage: devices rename <id> <name>", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewDeviceRepository(db)
	registered, err := repo.Get(id)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrDeviceNotFound, id)
	}

	registered.SetFriendlyName(name)
	if err := repo.Update(registered); err != nil {
		return fmt.Errorf("failed to rename device: %w", err)
	}

	r.writePlain("✓ Device %s renamed to %q\n", id, name)
	return nil
}

// watchDevices streams hotplug events until the context is cancelled.
func (r *Runner) watchDevices(ctx context.Context) error {
	events, err := device.Watch(ctx, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start device watch: %w", err)
	}

	r.writePlain("Watching for device events (ctrl+c to stop)...\n")
	for event := range events {
		r.writePlain("%-7s /dev/%s\n", event.Action, event.Name)
	}
	return nil
}

// registerDevices upserts scanned devices into the registry and returns
// their friendly names keyed by stable ID. Registry failures only log;
// scanning must keep working without a database.
func (r *Runner) registerDevices(devices []device.Device) map[string]string {
	names := map[string]string{}

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Debug("device registry unavailable", "error", err)
		return names
	}
	defer db.Close()

	repo := repositories.NewDeviceRepository(db)
	for _, dev := range devices {
		registered, err := repo.Touch(dev.StableID, dev.Label, dev.FSType, dev.SizeBytes)
		if err != nil {
			r.logger.Debug("failed to register device", "device", dev.Name, "error", err)
			continue
		}
		if registered.FriendlyName() != "" {
			names[dev.StableID] = registered.FriendlyName()
		}
	}
	return names
}

func renderDeviceTable(devices []device.Device, names map[string]string, detailed bool) string {
	headers := []string{"ID", "Label", "Device", "Mount point"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}
	if detailed {
		headers = append(headers, "FS", "Size", "Free")
		aligns = append(aligns, alignLeft, alignRight, alignRight)
	}

	rows := make([][]string, 0, len(devices))
	for _, dev := range devices {
		label := dev.DisplayLabel()
		if name, ok := names[dev.StableID]; ok {
			label = fmt.Sprintf("%s (%s)", name, label)
		}

		mountPoint := dev.MountPoint
		if mountPoint == "" {
			mountPoint = "-"
		}

		row := []string{dev.StableID, label, "/dev/" + dev.Name, mountPoint}
		if detailed {
			free := "-"
			if dev.FreeBytes > 0 {
				free = humanize.IBytes(uint64(dev.FreeBytes))
			}
			row = append(row, strings.ToLower(dev.FSType), humanize.IBytes(uint64(dev.SizeBytes)), free)
		}
		rows = append(rows, row)
	}

	return renderTable(headers, rows, aligns)
}
