// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

// ParseYAML parses a YAML or JSON snapshot. Registers missing from the
// document keep their reset value; unknown keys are rejected.
func ParseYAML(data []byte) (regs.Set, error) {
	set := regs.Reset()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(&set)
	switch {
	case errors.Is(err, io.EOF):
		return set, fmt.Errorf("empty snapshot")
	case err != nil:
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return set, &ErrUnknownRegister{Err: err}
		}
		return set, err
	}
	return set, nil
}

func hexNode(v uint64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("0x%X", v)}
}

// MarshalYAML encodes the set as YAML with hexadecimal register values.
func MarshalYAML(set regs.Set) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	v := reflect.ValueOf(set)
	t := v.Type()
	for idx := 0; idx < t.NumField(); idx++ {
		key := strings.Split(t.Field(idx).Tag.Get("yaml"), ",")[0]
		f := v.Field(idx)

		value := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		if f.Kind() == reflect.Array {
			for i := 0; i < f.Len(); i++ {
				value.Content = append(value.Content, hexNode(f.Index(i).Uint()))
			}
		} else {
			value = hexNode(f.Uint())
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	}
	return yaml.Marshal(doc)
}
