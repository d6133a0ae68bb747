package locator

import (
	"errors"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	bluezBus       = "org.bluez"
	adapterIface   = "org.bluez.Adapter1"
	deviceIface    = "org.bluez.Device1"
	objectManager  = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
	serialPortUUID = "00001101-0000-1000-8000-00805f9b34fb"
)

// ErrDiscovery 未找到匹配设备，或与蓝牙服务通信失败
var ErrDiscovery = errors.New("locator: device discovery failed")

// DefaultNameHints 可接受的设备名
var DefaultNameHints = []string{"LiveView", "Jerry"}

// Candidate 候选设备
type Candidate struct {
	ID        string `json:"id"` // BlueZ 对象路径
	Address   string `json:"address"`
	Name      string `json:"name"`
	Paired    bool   `json:"paired"`
	HasSerial bool   `json:"has_serial"` // 已解析出串口服务
}

// ManagedObjects GetManagedObjects 的返回结构
type ManagedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// FilterCandidates 从 BlueZ 对象树中挑出名称匹配的设备。
// adapter 非空时只保留该适配器下的设备；address 非空时只保留该地址。
// 已配对设备排在前面，其余按对象路径排序。
func FilterCandidates(objects ManagedObjects, adapter string, hints []string, address string) []Candidate {
	if len(hints) == 0 {
		hints = DefaultNameHints
	}
	var out []Candidate
	for path, ifaces := range objects {
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		if adapter != "" && !strings.HasPrefix(string(path), adapter+"/") {
			continue
		}
		c := Candidate{
			ID:      string(path),
			Address: stringProp(props, "Address"),
			Name:    stringProp(props, "Name"),
			Paired:  boolProp(props, "Paired"),
		}
		if c.Name == "" {
			c.Name = stringProp(props, "Alias")
		}
		for _, u := range stringsProp(props, "UUIDs") {
			if strings.EqualFold(u, serialPortUUID) {
				c.HasSerial = true
				break
			}
		}

		if address != "" {
			if !strings.EqualFold(c.Address, address) {
				continue
			}
		} else if !matchName(c.Name, hints) {
			continue
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Paired != out[j].Paired {
			return out[i].Paired
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func matchName(name string, hints []string) bool {
	for _, h := range hints {
		if name == h {
			return true
		}
	}
	return false
}

func stringProp(props map[string]dbus.Variant, key string) string {
	v, ok := props[key]
	if !ok {
		return ""
	}
	s, _ := v.Value().(string)
	return s
}

func boolProp(props map[string]dbus.Variant, key string) bool {
	v, ok := props[key]
	if !ok {
		return false
	}
	b, _ := v.Value().(bool)
	return b
}

func stringsProp(props map[string]dbus.Variant, key string) []string {
	v, ok := props[key]
	if !ok {
		return nil
	}
	ss, _ := v.Value().([]string)
	return ss
}
