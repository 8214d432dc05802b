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

	"github.com/choiway/loupebox/internal/archive"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Uploads one copy of every indexed photo to object storage",
	Long: `Uploads the first indexed copy of each distinct photo to the configured
S3-compatible bucket under YYYY/MM/DD/<name>_<sha><ext>. Objects that are
already in the bucket are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		bucket, err := archive.NewBucket(cfg.Archive)
		if err != nil {
			return err
		}
		if err := bucket.EnsureBucket(ctx); err != nil {
			return err
		}

		store, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Setup(ctx); err != nil {
			return err
		}

		res, err := archive.New(bucket, afero.NewOsFs(), logger).Run(ctx, store)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d, already archived %d, failed %d\n", res.Uploaded, res.Existing, res.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}
