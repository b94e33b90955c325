package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tdmalone/slackemon-sub000/internal/pokeapi"
)

var defaultEndpoints = []string{"species", "moves", "types"}

var initCmd = &cobra.Command{
	Use:    "init",
	Short:  "Initialize reference data by downloading it from PokéAPI",
	Long:   `Bootstraps the local game data environment by fetching species, move, and type data from PokéAPI, flattening it, and storing locally for offline use.`,
	Hidden: true,
	Run: func(cmd *cobra.Command, args []string) {
		dataDir, _ := cmd.Flags().GetString("data_dir_local")
		if dataDir == "" {
			rootDir, _ := os.Getwd()
			dataDir = filepath.Join(rootDir, "data")
		}

		force, _ := cmd.Flags().GetBool("force")
		speciesLimit, _ := cmd.Flags().GetInt("species_limit")

		// Determine which endpoints to run
		var targets []string
		anyFlagSelected := false
		for _, ep := range defaultEndpoints {
			flagVal, _ := cmd.Flags().GetBool(ep)
			if flagVal {
				targets = append(targets, ep)
				anyFlagSelected = true
			}
		}

		if !anyFlagSelected {
			targets = defaultEndpoints // If no flags passed, download all
		}

		fmt.Printf("Initializing reference data to: %s\n", dataDir)

		client := pokeapi.NewClient(dataDir, force)

		totalBar := progressbar.Default(int64(len(targets)), "Overall Progress")

		for _, endpoint := range targets {
			fmt.Printf("\nFetching %s...\n", endpoint)

			var err error
			switch endpoint {
			case "species":
				err = fetchSpecies(client, speciesLimit)
			case "moves":
				err = fetchMoves(client)
			case "types":
				err = fetchTypes(client)
			}
			if err != nil {
				fmt.Printf("Error fetching %s: %v\n", endpoint, err)
			}
			totalBar.Add(1)
		}

		fmt.Println("\nData bootstrap complete!")
	},
}

func fetchSpecies(client *pokeapi.Client, limit int) error {
	list, err := client.FetchList("pokemon", limit)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(list.Results)), "Downloading species")
	for _, ref := range list.Results {
		if client.Exists("species", ref.Name) {
			bar.Add(1)
			continue
		}
		client.Throttle()

		species, err := client.FetchSpecies(ref.Name)
		if err != nil {
			// A handful of form-only entries 404 on the species endpoint.
			bar.Add(1)
			continue
		}
		if err := client.SaveItem("species", ref.Name, species); err != nil {
			fmt.Printf("\nFailed to save %s: %v\n", ref.Name, err)
		}
		bar.Add(1)
	}
	return nil
}

func fetchMoves(client *pokeapi.Client) error {
	list, err := client.FetchList("move", 1000)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(list.Results)), "Downloading moves")
	for _, ref := range list.Results {
		if client.Exists("moves", ref.Name) {
			bar.Add(1)
			continue
		}
		client.Throttle()

		move, err := client.FetchMove(ref.Name)
		if err != nil {
			bar.Add(1)
			continue
		}
		if err := client.SaveItem("moves", ref.Name, move); err != nil {
			fmt.Printf("\nFailed to save %s: %v\n", ref.Name, err)
		}
		bar.Add(1)
	}
	return nil
}

func fetchTypes(client *pokeapi.Client) error {
	list, err := client.FetchList("type", 30)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(list.Results)), "Downloading types")
	for _, ref := range list.Results {
		if client.Exists("types", ref.Name) {
			bar.Add(1)
			continue
		}
		client.Throttle()

		rel, err := client.FetchType(ref.Name)
		if err != nil {
			bar.Add(1)
			continue
		}
		if err := client.SaveItem("types", ref.Name, rel); err != nil {
			fmt.Printf("\nFailed to save %s: %v\n", ref.Name, err)
		}
		bar.Add(1)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "Force redownload of existing files")
	initCmd.Flags().String("data_dir_local", "", "Local data directory to save files to (internal fallback is still used by the app)")
	initCmd.Flags().Int("species_limit", 251, "How many species to download, in Pokédex order")

	for _, ep := range defaultEndpoints {
		initCmd.Flags().Bool(ep, false, fmt.Sprintf("Download %s", ep))
	}
}
