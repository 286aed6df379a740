// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package external

import (
	"context"
	"fmt"
	"time"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

type VMIPAddressInput struct {
	Kubeconfig string
	Namespace  string
	Name       string
	Timeout    time.Duration
}

type VMIPAddressOutput struct {
	VMIPAddressInput
	IPAddress string
}

// VMIPAddress waits for a Harvester virtual machine instance to report an
// address.
type VMIPAddress struct {
	Deps
}

var _ lifecycle.Provider[VMIPAddressInput, VMIPAddressOutput] = (*VMIPAddress)(nil)

func (p *VMIPAddress) Create(ctx context.Context, in VMIPAddressInput) (lifecycle.CreateResult[VMIPAddressOutput], error) {
	logger := p.logger("vm_ip_address").With("vm", in.Namespace+"/"+in.Name)
	c, err := p.connectKubeconfig(ctx, in.Kubeconfig, logger)
	if err != nil {
		return lifecycle.CreateResult[VMIPAddressOutput]{}, err
	}

	ip, err := api.FetchVMIP(ctx, c, in.Namespace, in.Name, p.wait(orDefault(in.Timeout, VMIPTimeout), 0)...)
	if err != nil {
		return lifecycle.CreateResult[VMIPAddressOutput]{}, fmt.Errorf("failed to get IP address of VMI %s/%s: %w", in.Namespace, in.Name, err)
	}
	logger.Info("virtual machine reported address", "ip", ip)

	return lifecycle.CreateResult[VMIPAddressOutput]{
		ID:  lifecycle.StableID(in.Namespace, in.Name),
		Out: VMIPAddressOutput{VMIPAddressInput: in, IPAddress: ip},
	}, nil
}

func (p *VMIPAddress) Diff(old VMIPAddressOutput, in VMIPAddressInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("kubeconfig", old.Kubeconfig, in.Kubeconfig, false).
		Compare("namespace", old.Namespace, in.Namespace, true).
		Compare("name", old.Name, in.Name, true).
		Compare("timeout", old.Timeout, in.Timeout, false).
		Result()
}

// Update reads the address again.
func (p *VMIPAddress) Update(ctx context.Context, _ string, _ VMIPAddressOutput, in VMIPAddressInput) (VMIPAddressOutput, error) {
	res, err := p.Create(ctx, in)
	return res.Out, err
}

// Delete does nothing: the virtual machine is managed elsewhere.
func (p *VMIPAddress) Delete(context.Context, string, VMIPAddressOutput) error {
	return nil
}
