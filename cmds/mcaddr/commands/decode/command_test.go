// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decode

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/linuxboot/mcaddr/cmds/mcaddr/commands"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/layout"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/snapshot"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/xlat"
)

type DecodeSuite struct {
	suite.Suite

	snapshotPath string
	output       bytes.Buffer
}

func (suite *DecodeSuite) SetupTest() {
	set := regs.Reset()
	set.TOLUD = 0xC000_0000
	set.TOM = 0x1_0000_0000
	set.InterChannel = regs.InterChannel(0).WithDDRType(regs.DDRTypeDDR4)
	set.DimmChannel[0] = regs.DimmChannel(0).WithDimm(regs.DimmL, 8, uint8(layout.X8), 1, false, false)

	suite.snapshotPath = filepath.Join(suite.T().TempDir(), "regs.yaml")
	suite.Require().NoError(snapshot.Save(suite.snapshotPath, set, snapshot.FormatYAML, nil))
	suite.output.Reset()
}

func (suite *DecodeSuite) command(format string) *Command {
	cmd := &Command{}
	cmd.Snapshot = suite.snapshotPath
	if format != "" {
		cmd.Format = &format
	}
	cmd.SetOutput(&suite.output)
	return cmd
}

func (suite *DecodeSuite) TestText() {
	suite.Require().NoError(suite.command("").Execute([]string{"0", "0xFFFFFFFF"}))
	suite.Contains(suite.output.String(), "0xFFFFFFFF")
	suite.Contains(suite.output.String(), "0x7FFF")
	suite.Contains(suite.output.String(), "0x3FC")
}

func (suite *DecodeSuite) TestJSON() {
	suite.Require().NoError(suite.command("json").Execute([]string{"0xffffffff"}))

	var results []Result
	suite.Require().NoError(json.Unmarshal(suite.output.Bytes(), &results))
	suite.Require().Len(results, 1)
	suite.Equal(xlat.SystemAddress{Address: 0xFFFF_FFFF}, results[0].Address)
	suite.Equal(&xlat.DramAddress{BankGroup: 3, Bank: 3, Row: 0x7FFF, Column: 0x3FC}, results[0].DRAM)
	suite.Empty(results[0].Error)
}

func (suite *DecodeSuite) TestTCM() {
	cmd := suite.command("json")
	cmd.TCM = true
	suite.Require().NoError(cmd.Execute([]string{"0x40"}))

	var results []Result
	suite.Require().NoError(json.Unmarshal(suite.output.Bytes(), &results))
	suite.Require().Len(results, 1)
	suite.True(results[0].Address.TCM)
	suite.True(results[0].DRAM.TCM)
}

func (suite *DecodeSuite) TestUnmapped() {
	err := suite.command("").Execute([]string{"0x1000", "0x100000000"})
	suite.Require().ErrorContains(err, "unable to decode 1 of 2 addresses")
	var partial commands.ErrPartial
	suite.Require().ErrorAs(err, &partial)
	suite.Equal(1, partial.Failed)
	suite.Contains(suite.output.String(), "out of system capacity")
}

func (suite *DecodeSuite) TestInvalidArguments() {
	suite.ErrorAs(suite.command("").Execute(nil), &commands.ErrArgs{})
	suite.ErrorAs(suite.command("").Execute([]string{"0xZZ"}), &commands.ErrArgs{})
	suite.ErrorAs(suite.command("xml").Execute([]string{"0x0"}), &commands.ErrArgs{})
}

func (suite *DecodeSuite) TestMissingSnapshot() {
	cmd := suite.command("")
	cmd.Snapshot = filepath.Join(suite.T().TempDir(), "missing.yaml")
	suite.ErrorIs(cmd.Execute([]string{"0x0"}), os.ErrNotExist)
}

func TestDecodeSuite(t *testing.T) {
	suite.Run(t, new(DecodeSuite))
}
