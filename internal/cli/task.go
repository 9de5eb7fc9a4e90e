package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const defaultWaitInterval = time.Second

var taskHeaders = []string{"ID", "STATUS", "EMAIL", "URL", "CREATED"}

func taskRow(t *TaskResponse) []string {
	return []string{t.ID, t.Status, t.EmailStatus, t.URL, t.CreatedAt}
}

// NewTaskCmd создаёт группу команд task.
func NewTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Submit loan applications and inspect tasks",
	}

	cmd.AddCommand(
		newTaskSubmitCmd(clientFn, outputFn),
		newTaskShowCmd(clientFn, outputFn),
		newTaskListCmd(clientFn, outputFn),
		newTaskWaitCmd(clientFn, outputFn),
	)

	return cmd
}

func newTaskSubmitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var appURL, key string
	var wait bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a loan application form for processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			task, err := client.CreateTask(cmd.Context(), CreateTaskRequest{URL: appURL, IdempotencyKey: key})
			if err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Task submitted: %s", task.ID))

			if wait {
				task, err = waitTask(cmd.Context(), client, task.ID, timeout)
				if err != nil {
					return err
				}
			}

			printTask(out, task)
			return nil
		},
	}

	cmd.Flags().StringVar(&appURL, "url", "", "URL of the loan application PDF (required)")
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the task finishes")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait with --wait")
	cmd.MarkFlagRequired("url")

	return cmd
}

func newTaskShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show task details and recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := clientFn().GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTask(outputFn(), task)
			return nil
		},
	}
}

func newTaskListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			tasks, total, err := clientFn().ListTasks(cmd.Context(), ListTasksOpts{
				Status: status,
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return err
			}

			rows := make([][]string, len(tasks))
			for i := range tasks {
				rows[i] = taskRow(&tasks[i])
			}
			out.Print(taskHeaders, rows, tasks)
			out.Success(fmt.Sprintf("%d of %d tasks", len(tasks), total))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of results to skip")

	return cmd
}

func newTaskWaitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wait ID",
		Short: "Wait until a task finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := waitTask(cmd.Context(), clientFn(), args[0], timeout)
			if err != nil {
				return err
			}
			printTask(outputFn(), task)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Maximum time to wait")

	return cmd
}

func waitTask(ctx context.Context, client *Client, id string, timeout time.Duration) (*TaskResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.WaitTask(ctx, id, defaultWaitInterval)
}

// printTask выводит task; в табличном режиме — ещё ошибку и текст рекомендации.
func printTask(out *Output, task *TaskResponse) {
	out.Print(taskHeaders, [][]string{taskRow(task)}, task)
	if task.Error != "" {
		out.Text("Error: " + task.Error)
	}
	if task.EmailError != "" {
		out.Text("Email error: " + task.EmailError)
	}
	out.Text(task.Recommendation)
}
