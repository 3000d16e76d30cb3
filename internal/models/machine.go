package models

// Machine is a registered vehicle or installation fuel is bought for.
// TaxasActivity is the activity classification declared for the machine.
type Machine struct {
	ID            string `yaml:"id" json:"id"`
	Name          string `yaml:"name" json:"name"`
	TaxasActivity string `yaml:"taxas_activity" json:"taxas_activity"`
}

// MachinesConfig is the layout of the machine registry file
type MachinesConfig struct {
	Machines []Machine `yaml:"machines"`
}
