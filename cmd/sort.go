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

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/choiway/loupebox/internal/organize"
)

var sortCmd = &cobra.Command{
	Use:   "sort <results-file> <photos-dir>",
	Short: "Moves photos into car_<number> folders from a results file",
	Long: `Reads a "filename;car_number" results file and moves each photo from
photos-dir into photos-dir/car_<number>/. Rows marked ERROR or NONE are left
alone.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := organize.NewSorter(afero.NewOsFs(), logger).Sort(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "moved %d, missing %d, failed %d\n", res.Moved, res.Missing, res.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sortCmd)
}
