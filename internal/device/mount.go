package device

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ChristopherJMiller/nutune/internal/shared"
)

// Mount mounts a block device by kernel name via udisks2, which grants
// unprivileged users access to removable media without sudo. Returns
// the mount point reported by udisksctl.
func Mount(ctx context.Context, name string) (string, error) {
	cmd := exec.CommandContext(ctx, "udisksctl", "mount", "-b", "/dev/"+name)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v: %s", shared.ErrMountFailed, name, err, strings.TrimSpace(string(out)))
	}

	// udisksctl reports "Mounted /dev/sdb1 at /run/media/user/LABEL".
	// Older releases end the line with a period.
	output := strings.TrimSpace(string(out))
	_, after, found := strings.Cut(output, " at ")
	if !found {
		return "", fmt.Errorf("%w: unexpected udisksctl output: %s", shared.ErrMountFailed, output)
	}
	return strings.TrimSuffix(strings.TrimSpace(after), "."), nil
}

// Unmount unmounts a block device by kernel name via udisks2.
func Unmount(ctx context.Context, name string) error {
	cmd := exec.CommandContext(ctx, "udisksctl", "unmount", "-b", "/dev/"+name)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("unmounting %s: %v: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
