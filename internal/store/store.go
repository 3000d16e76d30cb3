// Package store loads and saves the machine registry that maps each vehicle
// or installation to its declared activity.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"ndjaka/mineral-tax/internal/fileutils"
	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/models"
	"ndjaka/mineral-tax/internal/parsererror"
	"ndjaka/mineral-tax/internal/taxrate"
	"ndjaka/mineral-tax/internal/validation"

	"gopkg.in/yaml.v3"
)

// AppConfigDir is the directory under ~/.config searched for data files.
const AppConfigDir = "mineral-tax"

// DefaultMachinesFile is used when no registry file is configured.
const DefaultMachinesFile = "machines.yaml"

// MachineLookup finds a registered machine by ID.
type MachineLookup interface {
	Machine(id string) (models.Machine, bool)
}

// MachineStore manages the machine registry file.
type MachineStore struct {
	MachinesFile string

	logger   logging.Logger
	mu       sync.RWMutex
	machines map[string]models.Machine
}

// NewMachineStore creates a store for the given registry file name or path.
func NewMachineStore(machinesFile string, logger logging.Logger) *MachineStore {
	if machinesFile == "" {
		machinesFile = DefaultMachinesFile
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &MachineStore{
		MachinesFile: machinesFile,
		logger:       logger,
		machines:     map[string]models.Machine{},
	}
}

// FindConfigFile looks for a data file in the current directory, ./config,
// ./database and ~/.config/mineral-tax, in that order.
func FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if fileutils.FileExists(filename) {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join("database", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", AppConfigDir, filename))
	}

	for _, location := range locations {
		if fileutils.FileExists(location) {
			return location, nil
		}
	}

	return "", os.ErrNotExist
}

// Load reads the registry. A missing file yields an empty registry; a
// malformed one, a machine without an ID or a duplicate ID is an error.
func (s *MachineStore) Load() ([]models.Machine, error) {
	filePath, err := FindConfigFile(s.MachinesFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Machine registry not found, activities must come from the entries",
				logging.F(logging.FieldFile, s.MachinesFile))
			s.replace(nil)
			return []models.Machine{}, nil
		}
		return nil, fmt.Errorf("error resolving machine registry: %w", err)
	}

	if info, err := os.Stat(filePath); err == nil {
		if err := validation.IsValidFilePermissions(info.Mode().Perm()); err != nil {
			s.logger.Warn("Machine registry is readable by other users",
				logging.F(logging.FieldFile, filePath),
				logging.F(logging.FieldReason, err.Error()))
		}
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading machine registry: %w", err)
	}

	var cfg models.MachinesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing machine registry %s: %w", filePath, err)
	}

	seen := make(map[string]bool, len(cfg.Machines))
	for i := range cfg.Machines {
		m := &cfg.Machines[i]
		m.ID = strings.TrimSpace(m.ID)
		m.TaxasActivity = strings.TrimSpace(m.TaxasActivity)
		if m.ID == "" {
			return nil, &parsererror.DataExtractionError{
				FilePath:  filePath,
				FieldName: "id",
				Reason:    fmt.Sprintf("machine %d has no id", i+1),
			}
		}
		if seen[m.ID] {
			return nil, &parsererror.ValidationError{
				FilePath: filePath,
				Reason:   fmt.Sprintf("duplicate machine id %q", m.ID),
			}
		}
		seen[m.ID] = true

		if m.TaxasActivity != "" {
			if _, ok := taxrate.ParseSector(m.TaxasActivity); !ok {
				s.logger.Warn("Machine declares an unknown activity, standard rate will apply",
					logging.F(logging.FieldMachine, m.ID),
					logging.F(logging.FieldSector, m.TaxasActivity))
			}
		}
	}

	s.replace(cfg.Machines)
	s.logger.Debug("Loaded machine registry",
		logging.F(logging.FieldFile, filePath),
		logging.F(logging.FieldCount, len(cfg.Machines)))
	return cfg.Machines, nil
}

func (s *MachineStore) replace(machines []models.Machine) {
	index := make(map[string]models.Machine, len(machines))
	for _, m := range machines {
		index[m.ID] = m
	}
	s.mu.Lock()
	s.machines = index
	s.mu.Unlock()
}

// Machine returns the loaded machine with the given ID.
func (s *MachineStore) Machine(id string) (models.Machine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.machines[strings.TrimSpace(id)]
	return m, ok
}

// Machines returns the loaded machines sorted by ID.
func (s *MachineStore) Machines() []models.Machine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Machine, 0, len(s.machines))
	for _, m := range s.machines {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Save writes machines to the registry file and makes them the loaded set.
// A registry that does not exist yet is created under ./database.
func (s *MachineStore) Save(machines []models.Machine) error {
	filePath, err := FindConfigFile(s.MachinesFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("error resolving machine registry: %w", err)
		}
		filePath = s.MachinesFile
		if !filepath.IsAbs(filePath) && filepath.Dir(filePath) == "." {
			filePath = filepath.Join("database", filePath)
		}
	}

	data, err := yaml.Marshal(models.MachinesConfig{Machines: machines})
	if err != nil {
		return fmt.Errorf("error marshaling machine registry: %w", err)
	}
	if err := fileutils.WriteFile(filePath, data, models.PermissionConfigFile); err != nil {
		return fmt.Errorf("error writing machine registry: %w", err)
	}

	s.replace(machines)
	s.logger.Debug("Saved machine registry",
		logging.F(logging.FieldFile, filePath),
		logging.F(logging.FieldCount, len(machines)))
	return nil
}

// ResolveActivity returns the activity an entry is classified under: its own
// Activity if set, else the taxas_activity of its machine. ok is false when
// neither is available.
func ResolveActivity(entry models.FuelEntry, machines MachineLookup) (string, bool) {
	if a := strings.TrimSpace(entry.Activity); a != "" {
		return a, true
	}
	if machines == nil || entry.MachineID == "" {
		return "", false
	}
	if m, ok := machines.Machine(entry.MachineID); ok && m.TaxasActivity != "" {
		return m.TaxasActivity, true
	}
	return "", false
}
