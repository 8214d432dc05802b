/*
Copyright © 2021 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dryRun bool

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <directory>",
	Short: "Indexes the photos in a directory and reports duplicates",
	Long: `Walks the directory, hashes every image that is not indexed yet and
stores it, then prints each group of files with identical content.

loupebox scan /source/dir`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		cat := newCatalog(cmd, store)

		if dryRun {
			logger.Info("doing dry run")
			pending, err := cat.Plan(ctx, args[0])
			if err != nil {
				return err
			}
			for _, p := range pending {
				fmt.Fprintf(cmd.OutOrStdout(), "New: %s\n", p)
			}
			logger.Info("dry run finished", "new", len(pending))
			return nil
		}

		if _, err := cat.Scan(ctx, args[0]); err != nil {
			return err
		}
		_, err = cat.ReportDuplicates(ctx)
		return err
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "List new photos without indexing them")
}
