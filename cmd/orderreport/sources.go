package main

import (
	"orderreport/internal/config"
	"orderreport/internal/datasource/file"
	"orderreport/internal/pipeline"
)

// sources opens the three exports from local files.
func sources(cfg config.Config) pipeline.Inputs {
	return pipeline.Inputs{
		Orders:    file.NewLocal(cfg.Inputs.Orders),
		Meta:      file.NewLocal(cfg.Inputs.Meta),
		Addresses: file.NewLocal(cfg.Inputs.Addresses),
	}
}
