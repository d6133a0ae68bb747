package liveview

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IDTable 包标识映射。不同固件版本的标识并不一致，因此允许通过 YAML 覆盖。
type IDTable struct {
	Ack byte `yaml:"ack"`

	StandbyRequest  byte `yaml:"standbyRequest"`
	StandbyResponse byte `yaml:"standbyResponse"`

	DisplayPropertiesRequest  byte `yaml:"displayPropertiesRequest"`
	DisplayPropertiesResponse byte `yaml:"displayPropertiesResponse"`

	ClearDisplayRequest  byte `yaml:"clearDisplayRequest"`
	ClearDisplayResponse byte `yaml:"clearDisplayResponse"`

	TimeDateRequest  byte `yaml:"timeDateRequest"`
	TimeDateResponse byte `yaml:"timeDateResponse"`

	NavigationRequest  byte `yaml:"navigationRequest"`
	NavigationResponse byte `yaml:"navigationResponse"`

	LEDRequest  byte `yaml:"ledRequest"`
	LEDResponse byte `yaml:"ledResponse"`

	VibrateRequest  byte `yaml:"vibrateRequest"`
	VibrateResponse byte `yaml:"vibrateResponse"`

	TimeRequest  byte `yaml:"timeRequest"`
	TimeResponse byte `yaml:"timeResponse"`
}

// DefaultIDTable 返回默认标识映射
func DefaultIDTable() IDTable {
	return IDTable{
		Ack: 44,

		StandbyRequest:  7,
		StandbyResponse: 8,

		DisplayPropertiesRequest:  1,
		DisplayPropertiesResponse: 2,

		ClearDisplayRequest:  21,
		ClearDisplayResponse: 22,

		TimeDateRequest:  15,
		TimeDateResponse: 16,

		NavigationRequest:  29,
		NavigationResponse: 30,

		LEDRequest:  40,
		LEDResponse: 41,

		VibrateRequest:  42,
		VibrateResponse: 43,

		TimeRequest:  38,
		TimeResponse: 39,
	}
}

// LoadIDTable 读取 YAML 并覆盖在默认映射之上，未出现的键保持默认值
func LoadIDTable(path string) (IDTable, error) {
	t := DefaultIDTable()
	b, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read id table: %w", err)
	}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return t, fmt.Errorf("unmarshal id table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (t IDTable) entries() []struct {
	name string
	id   byte
} {
	return []struct {
		name string
		id   byte
	}{
		{"ACK", t.Ack},
		{"STANDBY_REQUEST", t.StandbyRequest},
		{"STANDBY_RESPONSE", t.StandbyResponse},
		{"DISPLAY_PROPERTIES_REQUEST", t.DisplayPropertiesRequest},
		{"DISPLAY_PROPERTIES_RESPONSE", t.DisplayPropertiesResponse},
		{"CLEAR_DISPLAY_REQUEST", t.ClearDisplayRequest},
		{"CLEAR_DISPLAY_RESPONSE", t.ClearDisplayResponse},
		{"TIME_DATE_REQUEST", t.TimeDateRequest},
		{"TIME_DATE_RESPONSE", t.TimeDateResponse},
		{"NAVIGATION_REQUEST", t.NavigationRequest},
		{"NAVIGATION_RESPONSE", t.NavigationResponse},
		{"LED_REQUEST", t.LEDRequest},
		{"LED_RESPONSE", t.LEDResponse},
		{"VIBRATE_REQUEST", t.VibrateRequest},
		{"VIBRATE_RESPONSE", t.VibrateResponse},
		{"TIME_REQUEST", t.TimeRequest},
		{"TIME_RESPONSE", t.TimeResponse},
	}
}

// Validate 标识不可重复，否则分发结果不确定
func (t IDTable) Validate() error {
	seen := make(map[byte]string, 17)
	for _, e := range t.entries() {
		if prev, ok := seen[e.id]; ok {
			return fmt.Errorf("id table: %s and %s share id %d", prev, e.name, e.id)
		}
		seen[e.id] = e.name
	}
	return nil
}

// Name 返回标识的日志名称，未知标识返回 UNKNOWN(n)
func (t IDTable) Name(id byte) string {
	for _, e := range t.entries() {
		if e.id == id {
			return e.name
		}
	}
	return fmt.Sprintf("UNKNOWN(%d)", id)
}
