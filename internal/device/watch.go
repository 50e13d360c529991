package device

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/pilebones/go-udev/netlink"
)

// Event is a hotplug notification for a block device.
type Event struct {
	Action string // "add" or "remove"
	Name   string // Kernel name, e.g. sdb1
}

// Watch subscribes to kernel udev events for block device add/remove
// and delivers them until ctx is cancelled. The returned channel closes
// when the watch ends.
func Watch(ctx context.Context, logger *log.Logger) (<-chan Event, error) {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, fmt.Errorf("connecting to udev netlink socket: %w", err)
	}

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	action := "add|remove"
	matcher := &netlink.RuleDefinitions{}
	matcher.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
		},
	})

	monitorQuit := conn.Monitor(queue, errs, matcher)
	events := make(chan Event)

	go func() {
		defer close(events)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				close(monitorQuit)
				return
			case uevent := <-queue:
				name := uevent.Env["DEVNAME"]
				if name == "" {
					continue
				}
				events <- Event{
					Action: string(uevent.Action),
					Name:   trimDevPrefix(name),
				}
			case err := <-errs:
				if logger != nil {
					logger.Warn("udev monitor error", "err", err)
				}
			}
		}
	}()

	return events, nil
}

func trimDevPrefix(name string) string {
	const prefix = "/dev/"
	if len(name) > len(prefix) && name[:len(prefix)] == prefix {
		return name[len(prefix):]
	}
	return name
}
