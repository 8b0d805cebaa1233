package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
)

// Uninstall stops and disables the service and removes its unit file.
func Uninstall() error {
	logrus.Infof("stopping colordetect")

	if err := systemctl("disable", "--now", serviceName); err != nil {
		return fmt.Errorf("failed to stop %s: %w. Are you root?", serviceName, err)
	}

	logrus.Infof("removing systemd unit")

	err := os.Remove(unitPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w. Are you root?", unitPath, err)
	}

	return systemctl("daemon-reload")
}
