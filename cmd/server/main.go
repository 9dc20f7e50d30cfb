package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "reveal",
		Usage: "gender reveal wagering backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before reading the environment",
				Value: ".env",
			},
		},
		Before: loadLocalEnv,
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:        "serve",
				Usage:       "Start the HTTP API",
				Action:      serve,
				Description: `Runs migrations, then serves the public API and the metrics listener until SIGINT or SIGTERM.`,
			},
			{
				Name:        "migrate",
				Usage:       "Apply the database schema and exit",
				Action:      migrate,
				Description: `Creates the users, events, bets, winners and user_plans tables if they are missing.`,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadLocalEnv(c *cli.Context) error {
	if err := godotenv.Load(c.String("env-file")); err != nil {
		log.Printf("no %s file found; relying on existing environment", c.String("env-file"))
	}
	return nil
}
