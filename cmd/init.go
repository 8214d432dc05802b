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
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/choiway/loupebox/internal/config"
	"github.com/choiway/loupebox/internal/repository"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initializes loupebox for the current directory",
	Long: `Creates .loupebox/config.yaml and the photo index in the given directory
(the current directory by default). Existing files are kept, so running init
twice is harmless.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			dir = args[0]
		}

		configPath := filepath.Join(dir, config.DefaultPath)
		if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
			if err := config.Default().Save(configPath); err != nil {
				return err
			}
			logger.Info("config created", "path", configPath)
		} else if err != nil {
			return err
		} else {
			logger.Info("config already exists", "path", configPath)
		}

		target, err := config.Load(configPath)
		if err != nil {
			return err
		}
		db := target.Database
		if db.Driver == config.DriverSQLite && !filepath.IsAbs(db.Path) {
			db.Path = filepath.Join(dir, db.Path)
		}

		ctx := cmd.Context()
		store, err := repository.Open(ctx, db)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Setup(ctx); err != nil {
			return err
		}
		logger.Info("photo index ready", "driver", db.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
