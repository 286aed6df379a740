// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package external

import (
	"context"
	"fmt"

	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/api"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/connection"
	"github.com/tinkerbell-community/terraform-provider-rancherops/rancherops/lifecycle"
)

const (
	cloudCredentialsPath = "/v3/cloudcredentials"
	cloudCredentialType  = "provisioning.cattle.io/cloud-credential"
	credentialNamespace  = "fleet-default"
)

type CloudCredentialInput struct {
	Rancher             connection.Descriptor
	Name                string
	HarvesterClusterID  string
	HarvesterKubeconfig string
	Annotations         map[string]string
}

type CloudCredentialOutput struct {
	CloudCredentialInput
	CredentialID string
}

type harvesterCredentialConfig struct {
	ClusterID         string `json:"clusterId"`
	KubeconfigContent string `json:"kubeconfigContent"`
}

type cloudCredentialBody struct {
	Type            string                    `json:"type"`
	InternalType    string                    `json:"_type"`
	InternalName    string                    `json:"_name"`
	Name            string                    `json:"name"`
	Annotations     map[string]string         `json:"annotations"`
	HarvesterConfig harvesterCredentialConfig `json:"harvestercredentialConfig"`
	Metadata        struct {
		Name      string `json:"name"`
		Namespace string `json:"namespace"`
	} `json:"metadata"`
}

func (in CloudCredentialInput) body() cloudCredentialBody {
	annotations := in.Annotations
	if annotations == nil {
		annotations = map[string]string{}
	}
	b := cloudCredentialBody{
		Type:         cloudCredentialType,
		InternalType: cloudCredentialType,
		InternalName: in.Name,
		Name:         in.Name,
		Annotations:  annotations,
		HarvesterConfig: harvesterCredentialConfig{
			ClusterID:         in.HarvesterClusterID,
			KubeconfigContent: in.HarvesterKubeconfig,
		},
	}
	b.Metadata.Name = in.Name
	b.Metadata.Namespace = credentialNamespace
	return b
}

// CloudCredential registers a Harvester cloud credential with Rancher. It is
// the one resource this provider owns outright, so Delete removes it.
type CloudCredential struct {
	Deps
}

var _ lifecycle.Provider[CloudCredentialInput, CloudCredentialOutput] = (*CloudCredential)(nil)

func (p *CloudCredential) Create(ctx context.Context, in CloudCredentialInput) (lifecycle.CreateResult[CloudCredentialOutput], error) {
	logger := p.logger("cloud_credential").With("credential", in.Name)
	c, err := p.connect(ctx, in.Rancher, logger)
	if err != nil {
		return lifecycle.CreateResult[CloudCredentialOutput]{}, err
	}

	obj, err := c.Post(ctx, cloudCredentialsPath, in.body(), nil)
	if err != nil {
		return lifecycle.CreateResult[CloudCredentialOutput]{}, fmt.Errorf("failed to create cloud credential %s: %w", in.Name, err)
	}
	id, _ := obj.String("id")
	if id == "" {
		return lifecycle.CreateResult[CloudCredentialOutput]{}, fmt.Errorf("failed to create cloud credential %s: response from %s carries no id", in.Name, c.BaseURL())
	}
	logger.Info("created cloud credential", "id", id)

	return lifecycle.CreateResult[CloudCredentialOutput]{
		ID:  id,
		Out: CloudCredentialOutput{CloudCredentialInput: in, CredentialID: id},
	}, nil
}

func (p *CloudCredential) Diff(old CloudCredentialOutput, in CloudCredentialInput) lifecycle.DiffResult {
	return new(lifecycle.Diff).
		Compare("rancher", old.Rancher, in.Rancher, false).
		Compare("credential_name", old.Name, in.Name, true).
		Compare("harvester_cluster_id", old.HarvesterClusterID, in.HarvesterClusterID, true).
		Compare("harvester_kubeconfig", old.HarvesterKubeconfig, in.HarvesterKubeconfig, true).
		Compare("annotations", old.Annotations, in.Annotations, true).
		Result()
}

// Update only records a new connection; every other change replaces the
// credential.
func (p *CloudCredential) Update(_ context.Context, _ string, old CloudCredentialOutput, in CloudCredentialInput) (CloudCredentialOutput, error) {
	return CloudCredentialOutput{CloudCredentialInput: in, CredentialID: old.CredentialID}, nil
}

// Delete removes the credential. A credential that is already gone counts as
// deleted.
func (p *CloudCredential) Delete(ctx context.Context, id string, out CloudCredentialOutput) error {
	logger := p.logger("cloud_credential").With("credential", out.Name, "id", id)
	c, err := p.connect(ctx, out.Rancher, logger)
	if err != nil {
		return err
	}
	err = c.Delete(ctx, cloudCredentialsPath+"/"+id, nil)
	switch {
	case api.IsNotFound(err):
		logger.Debug("cloud credential already removed")
		return nil
	case err != nil:
		return fmt.Errorf("failed to delete cloud credential %s: %w", id, err)
	}
	logger.Info("deleted cloud credential")
	return nil
}
