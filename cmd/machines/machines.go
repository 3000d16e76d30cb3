// Package machines implements the machine registry commands
package machines

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"ndjaka/mineral-tax/cmd/root"
	"ndjaka/mineral-tax/internal/common"
	"ndjaka/mineral-tax/internal/models"
	"ndjaka/mineral-tax/internal/store"
	"ndjaka/mineral-tax/internal/taxrate"

	"github.com/spf13/cobra"
)

// Row is one line of the registry listing.
type Row struct {
	ID            string `csv:"ID"`
	Name          string `csv:"Name"`
	TaxasActivity string `csv:"TaxasActivity"`
}

var addFlags models.Machine

// Cmd represents the machines command
var Cmd = &cobra.Command{
	Use:   "machines",
	Short: "List or edit the machine registry",
	Long: `List the machines of the registry with their declared Taxas activity, or
add one with "machines add". Entries without an Activity column take the
activity of their machine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return List(cmd.OutOrStdout(), c.GetMachineStore(), c.GetConfig().Delimiter())
	},
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a machine",
	Long: `Add a machine to the registry, or update it if the ID exists.

Example:
  mineral-tax machines add --id TRAC-01 --name "Fendt 724" --activity agriculture_with_direct`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		if err := Add(c.GetMachineStore(), addFlags); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved machine %s\n", strings.TrimSpace(addFlags.ID))
		return err
	},
}

func init() {
	addCmd.Flags().StringVar(&addFlags.ID, "id", "", "Machine ID as used in the MachineID column")
	addCmd.Flags().StringVar(&addFlags.Name, "name", "", "Display name")
	addCmd.Flags().StringVar(&addFlags.TaxasActivity, "activity", "", "Taxas activity")
	Cmd.AddCommand(addCmd)
}

// List writes the registry as CSV.
func List(w io.Writer, s *store.MachineStore, delimiter rune) error {
	var rows []Row
	for _, m := range s.Machines() {
		rows = append(rows, Row{ID: m.ID, Name: m.Name, TaxasActivity: m.TaxasActivity})
	}
	var buf bytes.Buffer
	if err := common.WriteCSV(&buf, rows, delimiter); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Add inserts or replaces m and saves the registry. The activity must be a
// recognised one.
func Add(s *store.MachineStore, m models.Machine) error {
	m.ID = strings.TrimSpace(m.ID)
	m.Name = strings.TrimSpace(m.Name)
	if m.ID == "" {
		return fmt.Errorf("--id is required")
	}
	if m.TaxasActivity != "" {
		sector, ok := taxrate.ParseSector(m.TaxasActivity)
		if !ok {
			return fmt.Errorf("unknown activity %q", m.TaxasActivity)
		}
		m.TaxasActivity = sector.String()
	}

	machines := s.Machines()
	replaced := false
	for i := range machines {
		if machines[i].ID == m.ID {
			machines[i] = m
			replaced = true
		}
	}
	if !replaced {
		machines = append(machines, m)
	}
	return s.Save(machines)
}
