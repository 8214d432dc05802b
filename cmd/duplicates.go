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
	"github.com/spf13/cobra"
)

var findDuplicatesCmd = &cobra.Command{
	Use:   "find-duplicates",
	Short: "Prints groups of indexed photos with identical content",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Setup(ctx); err != nil {
			return err
		}

		n, err := store.Count(ctx)
		if err != nil {
			return err
		}
		logger.Info("searching for exact duplicates", "indexed", n)

		_, err = newCatalog(cmd, store).ReportDuplicates(ctx)
		return err
	},
}

func init() {
	rootCmd.AddCommand(findDuplicatesCmd)
}
