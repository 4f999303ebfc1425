package cli

import (
	"context"
	"fmt"
)

func (a *App) list(ctx context.Context) error {
	names, err := a.client.List(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(a.stdout, n)
	}
	return nil
}

func (a *App) get(ctx context.Context, filename string) error {
	return a.withPassword(func(password string) error {
		data, err := a.client.Get(ctx, filename, password)
		if err != nil {
			return err
		}
		_, err = a.stdout.Write(data)
		return err
	})
}

func (a *App) upload(ctx context.Context, cmd, filename, path string) error {
	content, err := readContent(path, a.stdin)
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}

	return a.withPassword(func(password string) error {
		send := a.client.Create
		if cmd == "update" {
			send = a.client.Update
		}
		msg, err := send(ctx, filename, content, password)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, msg)
		return nil
	})
}

func (a *App) delete(ctx context.Context, filename string) error {
	return a.withPassword(func(password string) error {
		msg, err := a.client.Delete(ctx, filename, password)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, msg)
		return nil
	})
}
