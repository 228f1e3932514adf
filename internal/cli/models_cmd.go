// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models_cmd.go - Model listing command handler for the aigw CLI.
//
// Handles "aigw list-models". By default the static catalog is shown
// without any network activity; --remote queries the gateway /models
// endpoint instead.
//
// Examples:
//   aigw list-models
//   aigw list-models --remote
//   aigw list-models --json
package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/aigw/internal/gateway"
)

// HandleListModels handles the "list-models" command.
func HandleListModels(args Args) error {
	if args.Remote {
		return listRemoteModels(args)
	}

	models := make([]gateway.ModelInfo, 0, len(gateway.PopularModels))
	for _, id := range gateway.PopularModels {
		models = append(models, gateway.ModelInfo{ID: id})
	}

	if args.JSON {
		return NewJSONResponse("list-models", ModelsData{
			Models: models,
			Source: "catalog",
		}).Print()
	}

	fmt.Println(TitleStyle.Render("Popular AI Gateway Models:"))
	for _, m := range models {
		fmt.Printf("  - %s\n", m.ID)
	}

	return nil
}

// listRemoteModels queries the gateway /models endpoint.
func listRemoteModels(args Args) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("list-models", err).Print()
		}
		return err
	}

	client, err := newGatewayClient(cfg)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("list-models", err).Print()
		}
		return err
	}

	models, err := client.ListModels(context.Background())
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("list-models", err).Print()
		}
		return fmt.Errorf("failed to list models: %w", err)
	}

	if args.JSON {
		return NewJSONResponse("list-models", ModelsData{
			Models: models,
			Source: "remote",
		}).Print()
	}

	fmt.Println(TitleStyle.Render("Available AI Gateway Models:"))
	for _, m := range models {
		if m.Name != "" && m.Name != m.ID {
			fmt.Printf("  - %s %s\n", m.ID, DimStyle.Render("("+m.Name+")"))
		} else {
			fmt.Printf("  - %s\n", m.ID)
		}
	}

	return nil
}
