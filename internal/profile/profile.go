package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// Driver is the session store driver (memory or sqlite)
	Driver string
	// DSN points to where session state is stored when Driver is sqlite
	DSN string
	// Version is the current version of server
	Version string

	// Timezone is the fixed calendar zone applied to naive timestamps at the
	// calendar boundary (e.g. "Africa/Cairo")
	Timezone string
	// CalendarProvider selects the availability backend (google or fake)
	CalendarProvider string
	// CalendarID is the calendar identity bookings are made against
	CalendarID string
	// GoogleCredentials is the path to the OAuth client credentials file
	GoogleCredentials string
	// GoogleToken is the path to the stored OAuth token file
	GoogleToken string
	// Summary is the event title used for created bookings
	Summary string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Location resolves the configured timezone.
func (p *Profile) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid timezone %q", p.Timezone)
	}
	return loc, nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Driver != "memory" && p.Driver != "sqlite" {
		return errors.Errorf("unsupported session driver %q", p.Driver)
	}
	if p.CalendarProvider != "google" && p.CalendarProvider != "fake" {
		return errors.Errorf("unsupported calendar provider %q", p.CalendarProvider)
	}
	if p.CalendarProvider == "google" && (p.GoogleCredentials == "" || p.GoogleToken == "") {
		return errors.New("google calendar provider requires credentials and token files")
	}
	if _, err := p.Location(); err != nil {
		return err
	}

	if p.Driver == "sqlite" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			return err
		}
		p.Data = dataDir
		if p.DSN == "" {
			dbFile := fmt.Sprintf("tailortalk_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	}

	return nil
}
