package uid

import (
	"context"
	"fmt"
	"regexp"

	"github.com/cucumber/godog"
)

// TestContext is what the steps need from the scenario context.
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	Status() int
	Field(name string) (any, error)
	Save(name, value string)
	Expand(s string) string
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	s := &uidSteps{tc: tc}

	ctx.Step(`^I request a "([^"]*)" identifier in "([^"]*)" for "([^"]*)"$`, s.requestUser)
	ctx.Step(`^I request an event identifier for "([^"]*)" in "([^"]*)" on "([^"]*)"$`, s.requestEvent)
	ctx.Step(`^I request a certificate for event "([^"]*)" and student "([^"]*)"$`, s.requestCertificate)
	ctx.Step(`^I look up "([^"]*)"$`, s.lookUp)
	ctx.Step(`^I remember the "([^"]*)" field as "([^"]*)"$`, s.remember)

	ctx.Step(`^the response status should be (\d+)$`, s.statusShouldBe)
	ctx.Step(`^the "([^"]*)" field should be "([^"]*)"$`, s.fieldShouldBe)
	ctx.Step(`^the "([^"]*)" field should match "([^"]*)"$`, s.fieldShouldMatch)
	ctx.Step(`^the "([^"]*)" field should be (true|false)$`, s.fieldShouldBeBool)
}

type uidSteps struct {
	tc TestContext
}

func (s *uidSteps) requestUser(_ context.Context, category, region, date string) error {
	return s.tc.POST("/v1/uids", map[string]string{"category": category, "region": region, "date": date})
}

func (s *uidSteps) requestEvent(_ context.Context, sport, region, date string) error {
	return s.tc.POST("/v1/events/uids", map[string]string{"sport": sport, "region": region, "date": date})
}

func (s *uidSteps) requestCertificate(_ context.Context, eventID, studentID string) error {
	return s.tc.POST("/v1/certificates/uids", map[string]string{
		"event_id":   s.tc.Expand(eventID),
		"student_id": s.tc.Expand(studentID),
	})
}

func (s *uidSteps) lookUp(_ context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *uidSteps) remember(_ context.Context, field, name string) error {
	v, err := s.tc.Field(field)
	if err != nil {
		return err
	}
	s.tc.Save(name, fmt.Sprint(v))
	return nil
}

func (s *uidSteps) statusShouldBe(_ context.Context, want int) error {
	if got := s.tc.Status(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *uidSteps) fieldShouldBe(_ context.Context, field, want string) error {
	v, err := s.tc.Field(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != s.tc.Expand(want) {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}

func (s *uidSteps) fieldShouldMatch(_ context.Context, field, pattern string) error {
	v, err := s.tc.Field(field)
	if err != nil {
		return err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); !re.MatchString(got) {
		return fmt.Errorf("expected %s to match %s, got %q", field, pattern, got)
	}
	return nil
}

func (s *uidSteps) fieldShouldBeBool(_ context.Context, field, want string) error {
	v, err := s.tc.Field(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s=%s, got %s", field, want, got)
	}
	return nil
}
