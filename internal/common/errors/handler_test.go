// internal/common/errors/handler_test.go
package errors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Error(string, map[string]interface{}) {}

// fakeJobClient records the fail/throw commands a handler issues.
type fakeJobClient struct {
	failedRetries []int32
	failMessages  []string
	thrownCodes   []string
}

func (f *fakeJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return &fakeCompleteCommand{}
}

func (f *fakeJobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return &fakeFailCommand{client: f}
}

func (f *fakeJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return &fakeThrowCommand{client: f}
}

type fakeFailCommand struct {
	client  *fakeJobClient
	retries int32
	message string
}

func (c *fakeFailCommand) JobKey(int64) commands.FailJobCommandStep2 { return c }

func (c *fakeFailCommand) Retries(retries int32) commands.FailJobCommandStep3 {
	c.retries = retries
	return c
}

func (c *fakeFailCommand) RetryBackoff(time.Duration) commands.FailJobCommandStep3 { return c }

func (c *fakeFailCommand) ErrorMessage(msg string) commands.FailJobCommandStep3 {
	c.message = msg
	return c
}

func (c *fakeFailCommand) VariablesFromString(string) (commands.DispatchFailJobCommand, error) {
	return c, nil
}

func (c *fakeFailCommand) VariablesFromStringer(fmt.Stringer) (commands.DispatchFailJobCommand, error) {
	return c, nil
}

func (c *fakeFailCommand) VariablesFromMap(map[string]interface{}) (commands.DispatchFailJobCommand, error) {
	return c, nil
}

func (c *fakeFailCommand) VariablesFromObject(interface{}) (commands.DispatchFailJobCommand, error) {
	return c, nil
}

func (c *fakeFailCommand) VariablesFromObjectIgnoreOmitempty(interface{}) (commands.DispatchFailJobCommand, error) {
	return c, nil
}

func (c *fakeFailCommand) Send(context.Context) (*pb.FailJobResponse, error) {
	c.client.failedRetries = append(c.client.failedRetries, c.retries)
	c.client.failMessages = append(c.client.failMessages, c.message)
	return &pb.FailJobResponse{}, nil
}

type fakeThrowCommand struct {
	client *fakeJobClient
	code   string
}

func (c *fakeThrowCommand) JobKey(int64) commands.ThrowErrorCommandStep2 { return c }

func (c *fakeThrowCommand) ErrorCode(code string) commands.DispatchThrowErrorCommand {
	c.code = code
	return c
}

func (c *fakeThrowCommand) ErrorMessage(string) commands.DispatchThrowErrorCommand { return c }

func (c *fakeThrowCommand) VariablesFromString(string) (commands.DispatchThrowErrorCommand, error) {
	return c, nil
}

func (c *fakeThrowCommand) VariablesFromStringer(fmt.Stringer) (commands.DispatchThrowErrorCommand, error) {
	return c, nil
}

func (c *fakeThrowCommand) VariablesFromMap(map[string]interface{}) (commands.DispatchThrowErrorCommand, error) {
	return c, nil
}

func (c *fakeThrowCommand) VariablesFromObject(interface{}) (commands.DispatchThrowErrorCommand, error) {
	return c, nil
}

func (c *fakeThrowCommand) VariablesFromObjectIgnoreOmitempty(interface{}) (commands.DispatchThrowErrorCommand, error) {
	return c, nil
}

func (c *fakeThrowCommand) Send(context.Context) (*pb.ThrowErrorResponse, error) {
	c.client.thrownCodes = append(c.client.thrownCodes, c.code)
	return &pb.ThrowErrorResponse{}, nil
}

type fakeCompleteCommand struct{}

func (c *fakeCompleteCommand) JobKey(int64) commands.CompleteJobCommandStep2 { return c }

func (c *fakeCompleteCommand) VariablesFromString(string) (commands.DispatchCompleteJobCommand, error) {
	return c, nil
}

func (c *fakeCompleteCommand) VariablesFromStringer(fmt.Stringer) (commands.DispatchCompleteJobCommand, error) {
	return c, nil
}

func (c *fakeCompleteCommand) VariablesFromMap(map[string]interface{}) (commands.DispatchCompleteJobCommand, error) {
	return c, nil
}

func (c *fakeCompleteCommand) VariablesFromObject(interface{}) (commands.DispatchCompleteJobCommand, error) {
	return c, nil
}

func (c *fakeCompleteCommand) VariablesFromObjectIgnoreOmitempty(interface{}) (commands.DispatchCompleteJobCommand, error) {
	return c, nil
}

func (c *fakeCompleteCommand) Send(context.Context) (*pb.CompleteJobResponse, error) {
	return &pb.CompleteJobResponse{}, nil
}

func jobWithRetries(retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:     42,
		Type:    "record-renewal-decision",
		Retries: retries,
	}}
}

func TestHandleJobError_DecrementsRetries(t *testing.T) {
	client := &fakeJobClient{}
	h := NewErrorHandler(nopLogger{})

	h.HandleJobError(context.Background(), client, jobWithRetries(3),
		NewQueryExecutionFailedError("insert decision", fmt.Errorf("connection refused")))

	require.Len(t, client.failedRetries, 1)
	assert.Equal(t, int32(2), client.failedRetries[0])
	assert.Empty(t, client.thrownCodes)
}

func TestHandleJobError_LastRetryFailsWithZero(t *testing.T) {
	client := &fakeJobClient{}
	h := NewErrorHandler(nopLogger{})

	h.HandleJobError(context.Background(), client, jobWithRetries(1),
		NewQueryExecutionFailedError("insert decision", fmt.Errorf("connection refused")))

	require.Len(t, client.failedRetries, 1)
	assert.Equal(t, int32(0), client.failedRetries[0])
}

func TestHandleJobError_CapsAtCodeBudget(t *testing.T) {
	client := &fakeJobClient{}
	h := NewErrorHandler(nopLogger{})

	// Job deployed with more retries than the code's budget allows.
	h.HandleJobError(context.Background(), client, jobWithRetries(10),
		NewQueryExecutionFailedError("insert decision", fmt.Errorf("connection refused")))

	require.Len(t, client.failedRetries, 1)
	assert.Equal(t, int32(3), client.failedRetries[0])
}

func TestHandleJobError_RetryCountShrinksAcrossFailures(t *testing.T) {
	client := &fakeJobClient{}
	h := NewErrorHandler(nopLogger{})
	err := NewQueryExecutionFailedError("insert decision", fmt.Errorf("connection refused"))

	// Simulate the broker redelivering with the count from the previous failure.
	h.HandleJobError(context.Background(), client, jobWithRetries(3), err)
	h.HandleJobError(context.Background(), client, jobWithRetries(client.failedRetries[0]), err)
	h.HandleJobError(context.Background(), client, jobWithRetries(client.failedRetries[1]), err)

	assert.Equal(t, []int32{2, 1, 0}, client.failedRetries)
}

func TestHandleJobError_NonRetryableThrowsBPMNError(t *testing.T) {
	client := &fakeJobClient{}
	h := NewErrorHandler(nopLogger{})

	h.HandleJobError(context.Background(), client, jobWithRetries(3),
		NewValidationError("assetId is required"))

	assert.Empty(t, client.failedRetries)
	require.Len(t, client.thrownCodes, 1)
	assert.Equal(t, string(ErrCodeValidation), client.thrownCodes[0])
}

func TestHandleJobError_ExhaustedJobThrows(t *testing.T) {
	client := &fakeJobClient{}
	h := NewErrorHandler(nopLogger{})

	h.HandleJobError(context.Background(), client, jobWithRetries(0),
		NewQueryExecutionFailedError("insert decision", fmt.Errorf("connection refused")))

	assert.Empty(t, client.failedRetries)
	require.Len(t, client.thrownCodes, 1)
}
