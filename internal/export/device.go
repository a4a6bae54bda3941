package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/axsol/varconfig/internal/csvio"
	"github.com/axsol/varconfig/internal/pipeline"
	"github.com/axsol/varconfig/internal/units"
)

// Device export modes. Native keeps the vendor's units and names;
// aligned rewrites them to the abstraction dictionary, converting
// scaling and offset into the abstraction's unit.
const (
	DeviceModeNative  = "native"
	DeviceModeAligned = "aligned"
)

// DeviceConfig is the JSON payload written for one device variable.
type DeviceConfig struct {
	Register    string `json:"mbRegister"`
	Unit        string `json:"unit"`
	Scaling     string `json:"scaling"`
	Offset      string `json:"offset"`
	UpperLimit  string `json:"upperLimit"`
	LowerLimit  string `json:"lowerLimit"`
	Description string `json:"description"`
	MQTTName    string `json:"mqttName"`
	Type        string `json:"type"`
	NativeName  string `json:"nativeName"`
}

// unitScalingBlob matches vendor cells that pack scaling and unit into
// one column, like "0.1V/bit".
var unitScalingBlob = regexp.MustCompile(`^([0-9]*\.?[0-9]+)\s*([A-Za-z°%]+.*)$`)

// BuildDeviceConfigs turns device CSV rows into per-variable configs.
// Rows without a Topic are skipped. In aligned mode a row whose AXSOL
// long name resolves in abstractions gets the abstraction's MQTT name,
// description, and limits, and its scaling and offset are converted into
// the abstraction's unit. Rows with a multiplier above one, or a U# name
// placeholder, expand into one config per repeat with "#" replaced by
// the two-digit repeat number and the register advanced by the address
// offset.
func BuildDeviceConfigs(header []string, rows []pipeline.Row, abstractions csvio.AbstractionSet, mode string) []DeviceConfig {
	get := fieldGetter(header)

	var configs []DeviceConfig
	for _, r := range rows {
		topic := get(r, "Topic")
		if topic == "" {
			continue
		}

		reg := get(r, "Register Address", "Register Adress")
		unit := get(r, "Unit")
		scaling := get(r, "Scaling")
		offset := get(r, "Offset")
		if unit == "" && scaling == "" {
			unit, scaling = splitUnitScalingBlob(get(r, "Unit& Scaling", "Unit & Scaling"))
		}

		longName := csvio.NormalizeLongName(get(r, "AXSOL Name"))

		cfg := DeviceConfig{
			Register:    reg,
			Unit:        unit,
			Scaling:     scaling,
			Offset:      offset,
			UpperLimit:  get(r, "upperLimit"),
			LowerLimit:  get(r, "lowerLimit"),
			Description: longName,
			Type:        get(r, "type"),
			NativeName:  topic,
		}

		if abs, ok := abstractions.Lookup(longName); ok {
			cfg.MQTTName = abs.ShortName
			cfg.Description = abs.LongName
			if abs.LimitUp != "" {
				cfg.UpperLimit = abs.LimitUp
			}
			if abs.LimitDown != "" {
				cfg.LowerLimit = abs.LimitDown
			}

			if mode == DeviceModeAligned {
				if abs.Unit != "" {
					factor := units.Factor(unit, abs.Unit)
					cfg.Scaling = rescale(scaling, factor)
					cfg.Offset = rescale(offset, factor)
					cfg.Unit = abs.Unit
				}
				if abs.Scaling != "" {
					cfg.Scaling = abs.Scaling
				}
			}
		}

		expand, repeats := needsExpansion(topic, get(r, "Multiplier"))
		if !expand {
			configs = append(configs, cfg)
			continue
		}

		regBase, regOK := tryInt(reg)
		addrOffset, _ := tryInt(get(r, "AddressOffset", "Address Offset"))
		for i := 1; i <= repeats; i++ {
			repeat := cfg
			repeat.NativeName = expandNameTemplate(topic, i)
			repeat.MQTTName = expandNameTemplate(cfg.MQTTName, i)
			if regOK {
				repeat.Register = strconv.Itoa(regBase + (i-1)*addrOffset)
			}
			configs = append(configs, repeat)
		}
	}
	return configs
}

// WriteDeviceConfigs writes one indented JSON file per config under dir,
// named after the sanitized native name.
func WriteDeviceConfigs(dir string, configs []DeviceConfig) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating device configs directory: %w", err)
	}
	for _, cfg := range configs {
		name := cfg.NativeName
		if name == "" {
			name = "variable"
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding device config for %q: %w", name, err)
		}
		path := filepath.Join(dir, SanitizeFileName(name)+".json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing device config for %q: %w", name, err)
		}
	}
	return nil
}

// fieldGetter returns a case-insensitive row accessor over the header.
// The first non-empty value among the candidate column names wins.
func fieldGetter(header []string) func(pipeline.Row, ...string) string {
	byLower := make(map[string]string, len(header))
	for _, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := byLower[key]; !ok {
			byLower[key] = h
		}
	}
	return func(r pipeline.Row, candidates ...string) string {
		for _, c := range candidates {
			col, ok := byLower[strings.ToLower(strings.TrimSpace(c))]
			if !ok {
				continue
			}
			if v := strings.TrimSpace(r[col]); v != "" {
				return v
			}
		}
		return ""
	}
}

// splitUnitScalingBlob splits a combined "0.1V/bit" style cell into
// (unit, scaling). Unparseable input is treated as a bare unit.
func splitUnitScalingBlob(blob string) (unit, scaling string) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return "", ""
	}
	if m := unitScalingBlob.FindStringSubmatch(blob); m != nil {
		return strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
	}
	return blob, ""
}

// needsExpansion reports whether a row expands into repeats and how many.
// A U# placeholder in the topic forces expansion even with multiplier 1.
func needsExpansion(topic, multiplier string) (bool, int) {
	repeats, _ := tryInt(multiplier)
	if repeats < 1 {
		repeats = 1
	}
	if strings.Contains(topic, "U#_") || strings.Contains(topic, "U_#") {
		return true, repeats
	}
	return repeats > 1, repeats
}

// expandNameTemplate replaces every "#" with the two-digit repeat number.
func expandNameTemplate(template string, idx int) string {
	return strings.ReplaceAll(template, "#", fmt.Sprintf("%02d", idx))
}

func tryInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// rescale multiplies a numeric string by factor, passing non-numeric
// values through unchanged.
func rescale(value string, factor float64) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return value
	}
	return strconv.FormatFloat(f*factor, 'g', -1, 64)
}
