package e2e

import (
	"github.com/cucumber/godog"

	"sportsuid/e2e/steps/uid"
)

// RegisterSteps registers every step definition.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	uid.RegisterSteps(ctx, tc)
}
