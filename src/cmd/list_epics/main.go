package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/ig-trading/src/ig"
	"github.com/jiaming2012/ig-trading/src/services"
	"github.com/jiaming2012/ig-trading/src/utils"
)

type RunArgs struct {
	AccType  string
	NodeID   string
	MaxDepth int
	Limit    int
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/list_epics/main.go --max-depth 2",
	Short: "Walk the IG market navigation tree and print tradable epics",
	Run: func(cmd *cobra.Command, args []string) {
		accType, err := cmd.Flags().GetString("acc-type")
		if err != nil {
			log.Fatalf("error getting acc-type: %v", err)
		}

		nodeID, err := cmd.Flags().GetString("node")
		if err != nil {
			log.Fatalf("error getting node: %v", err)
		}

		maxDepth, err := cmd.Flags().GetInt("max-depth")
		if err != nil {
			log.Fatalf("error getting max-depth: %v", err)
		}

		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			log.Fatalf("error getting limit: %v", err)
		}

		if err := Run(RunArgs{AccType: accType, NodeID: nodeID, MaxDepth: maxDepth, Limit: limit}); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func Run(args RunArgs) error {
	if err := utils.InitEnvironmentVariables(); err != nil {
		return err
	}

	username, err := utils.GetEnv("IG_USERNAME")
	if err != nil {
		return err
	}

	password, err := utils.GetEnv("IG_PASSWORD")
	if err != nil {
		return err
	}

	apiKey, err := utils.GetEnv("IG_API_KEY")
	if err != nil {
		return err
	}

	sessions, err := services.NewSessionService(services.SessionConfig{
		Username:    username,
		Password:    password,
		APIKey:      apiKey,
		AccountType: args.AccType,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()

	client, err := sessions.Ensure(ctx)
	if err != nil {
		return err
	}

	printed := 0
	return walk(ctx, client, args.NodeID, args.MaxDepth, args.Limit, &printed)
}

func walk(ctx context.Context, client *ig.Client, nodeID string, depth, limit int, printed *int) error {
	if depth < 0 || (limit > 0 && *printed >= limit) {
		return nil
	}

	nav, err := client.MarketNavigation(ctx, nodeID)
	if err != nil {
		// A single unreadable node should not abort the whole walk.
		log.Warnf("walk: failed to read node %q: %v", nodeID, err)
		return nil
	}

	for _, market := range nav.Markets {
		if limit > 0 && *printed >= limit {
			return nil
		}

		fmt.Printf("%s: %s\n", market.Epic, market.InstrumentName)
		*printed++
	}

	for _, node := range nav.Nodes {
		if err := walk(ctx, client, node.ID, depth-1, limit, printed); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	runCmd.Flags().String("acc-type", "DEMO", "IG account type: DEMO or LIVE")
	runCmd.Flags().String("node", "", "navigation node to start from (default: root)")
	runCmd.Flags().Int("max-depth", 3, "maximum navigation depth")
	runCmd.Flags().Int("limit", 100, "maximum number of epics to print (0 = unlimited)")

	if err := runCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
