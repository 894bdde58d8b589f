package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/ig-trading/src/services"
	"github.com/jiaming2012/ig-trading/src/utils"
)

type RunArgs struct {
	AccType string
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/check_connection/main.go",
	Short: "Verify IG credentials by opening a session and listing accounts",
	Run: func(cmd *cobra.Command, args []string) {
		accType, err := cmd.Flags().GetString("acc-type")
		if err != nil {
			log.Fatalf("error getting acc-type: %v", err)
		}

		result, err := Run(RunArgs{AccType: accType})
		if err != nil {
			log.Errorf("Error: %v", err)
			os.Exit(1)
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Errorf("Failed to marshal result: %v", err)
			return
		}

		fmt.Println(string(out))
	},
}

func Run(args RunArgs) (map[string]interface{}, error) {
	if err := utils.InitEnvironmentVariables(); err != nil {
		return nil, err
	}

	username, err := utils.GetEnv("IG_USERNAME")
	if err != nil {
		return nil, err
	}

	password, err := utils.GetEnv("IG_PASSWORD")
	if err != nil {
		return nil, err
	}

	apiKey, err := utils.GetEnv("IG_API_KEY")
	if err != nil {
		return nil, err
	}

	sessions, err := services.NewSessionService(services.SessionConfig{
		Username:    username,
		Password:    password,
		APIKey:      apiKey,
		AccountType: args.AccType,
	})
	if err != nil {
		return nil, err
	}

	markets := services.NewMarketService(sessions)

	return markets.TestConnectivity(context.Background()), nil
}

func main() {
	runCmd.Flags().String("acc-type", "DEMO", "IG account type: DEMO or LIVE")

	if err := runCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
