package mysql

import (
	"context"

	"github.com/ydh4481/llm-ddp/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        "mysql",
			DisplayName: "MySQL",
			Description: "MySQL and MariaDB servers",
		},
		Validate: func(descriptor string) error {
			_, err := ParseDescriptor(descriptor)
			return err
		},
		Open: func(ctx context.Context, descriptor string, opts datasource.Options) (datasource.Connection, error) {
			a, err := Open(ctx, descriptor, opts)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	})
}
