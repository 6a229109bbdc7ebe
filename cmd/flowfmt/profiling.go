package main

import (
	"github.com/spf13/cobra"

	"flowfmt/internal/prof"
)

func startProfiling(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Root().PersistentFlags().GetString("cpuprofile")
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	return prof.StartCPU(path)
}

func stopProfiling(cmd *cobra.Command, _ []string) error {
	cpuPath, err := cmd.Root().PersistentFlags().GetString("cpuprofile")
	if err != nil {
		return err
	}
	if cpuPath != "" {
		prof.StopCPU()
	}

	memPath, err := cmd.Root().PersistentFlags().GetString("memprofile")
	if err != nil {
		return err
	}
	if memPath != "" {
		return prof.WriteMem(memPath)
	}
	return nil
}
