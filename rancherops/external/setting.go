// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package external

import (
	"context"
	"fmt"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

type SettingInput struct {
	Rancher connection.Descriptor
	Name    string
	Value   string

	// Group selects /apis/<group>/v1/settings instead of the /v3 settings API.
	Group string
}

type SettingOutput struct {
	SettingInput
}

func (in SettingInput) path() string {
	if in.Group != "" {
		return fmt.Sprintf("/apis/%s/v1/settings/%s", in.Group, in.Name)
	}
	return "/v3/settings/" + in.Name
}

type settingBody struct {
	Metadata struct {
		Name string `json:"name"`
	} `json:"metadata"`
	Value string `json:"value"`
}

// Setting writes a Rancher setting with PUT.
type Setting struct {
	Deps
}

var _ lifecycle.Provider[SettingInput, SettingOutput] = (*Setting)(nil)

func (p *Setting) Create(ctx context.Context, in SettingInput) (lifecycle.CreateResult[SettingOutput], error) {
	logger := p.logger("setting").With("setting", in.Name)
	c, err := p.connect(ctx, in.Rancher, logger)
	if err != nil {
		return lifecycle.CreateResult[SettingOutput]{}, err
	}

	var body settingBody
	body.Metadata.Name = in.Name
	body.Value = in.Value

	logger.Info("updating setting", "server", c.BaseURL())
	if _, err := c.Put(ctx, in.path(), body, nil); err != nil {
		return lifecycle.CreateResult[SettingOutput]{}, fmt.Errorf("failed to set setting %s: %w", in.Name, err)
	}

	return lifecycle.CreateResult[SettingOutput]{
		ID:  lifecycle.StableID(c.BaseURL(), in.Name),
		Out: SettingOutput{SettingInput: in},
	}, nil
}

func (p *Setting) Diff(old SettingOutput, in SettingInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("rancher", old.Rancher, in.Rancher, false).
		Compare("setting_name", old.Name, in.Name, true).
		Compare("group_name", old.Group, in.Group, true).
		Compare("setting_value", old.Value, in.Value, false).
		Result()
}

func (p *Setting) Update(ctx context.Context, _ string, _ SettingOutput, in SettingInput) (SettingOutput, error) {
	res, err := p.Create(ctx, in)
	return res.Out, err
}

// Delete does nothing: settings pre-exist on the server and cannot be removed.
func (p *Setting) Delete(_ context.Context, id string, _ SettingOutput) error {
	p.logger("setting").Debug("leaving setting in place", "id", id)
	return nil
}

type HarvesterSettingInput struct {
	Harvester connection.Descriptor
	Name      string
	Value     string
}

type HarvesterSettingOutput struct {
	HarvesterSettingInput
}

type jsonPatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// HarvesterSetting replaces the value of a Harvester setting with a JSON
// patch, which needs no prior read of the resource version.
type HarvesterSetting struct {
	Deps
}

var _ lifecycle.Provider[HarvesterSettingInput, HarvesterSettingOutput] = (*HarvesterSetting)(nil)

func HarvesterSettingPath(name string) string {
	return "/apis/harvesterhci.io/v1beta1/settings/" + name
}

func (p *HarvesterSetting) Create(ctx context.Context, in HarvesterSettingInput) (lifecycle.CreateResult[HarvesterSettingOutput], error) {
	logger := p.logger("harvester_setting").With("setting", in.Name)
	c, err := p.connect(ctx, in.Harvester, logger)
	if err != nil {
		return lifecycle.CreateResult[HarvesterSettingOutput]{}, err
	}

	patch := []jsonPatchOp{{Op: "replace", Path: "/value", Value: in.Value}}
	logger.Info("patching setting", "server", c.BaseURL())
	if _, err := c.Patch(ctx, HarvesterSettingPath(in.Name), patch, nil); err != nil {
		return lifecycle.CreateResult[HarvesterSettingOutput]{}, fmt.Errorf("failed to set Harvester setting %s: %w", in.Name, err)
	}

	return lifecycle.CreateResult[HarvesterSettingOutput]{
		ID:  lifecycle.StableID(c.BaseURL(), in.Name),
		Out: HarvesterSettingOutput{HarvesterSettingInput: in},
	}, nil
}

func (p *HarvesterSetting) Diff(old HarvesterSettingOutput, in HarvesterSettingInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("harvester", old.Harvester, in.Harvester, false).
		Compare("setting_name", old.Name, in.Name, true).
		Compare("setting_value", old.Value, in.Value, false).
		Result()
}

func (p *HarvesterSetting) Update(ctx context.Context, _ string, _ HarvesterSettingOutput, in HarvesterSettingInput) (HarvesterSettingOutput, error) {
	res, err := p.Create(ctx, in)
	return res.Out, err
}

// Delete does nothing: Harvester settings always exist.
func (p *HarvesterSetting) Delete(context.Context, string, HarvesterSettingOutput) error {
	return nil
}
