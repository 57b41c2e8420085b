package mysql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/config"
)

const (
	DefaultPort    = 3306
	DefaultCharset = "utf8mb4"
)

// Config contains MySQL connection options parsed from a connection descriptor.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Charset  string
}

// ParseDescriptor parses a JSON connection descriptor such as
//
//	{"host": "db.internal", "port": 3306, "user": "ro", "password": "...", "database": "shop"}
//
// "passwd" and "db" are accepted as aliases, and port may be a number or a string.
func ParseDescriptor(raw string) (*Config, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: no connection info provided", apperrors.ErrInvalidConnectionDescriptor)
	}

	var fields map[string]any
	dec := json.NewDecoder(bytes.NewBufferString(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON format in connection_info", apperrors.ErrInvalidConnectionDescriptor)
	}

	cfg := &Config{
		Host:     stringField(fields, "host"),
		User:     stringField(fields, "user"),
		Password: stringField(fields, "password", "passwd"),
		Database: stringField(fields, "database", "db"),
		Charset:  stringField(fields, "charset"),
		Port:     DefaultPort,
	}
	if cfg.Charset == "" {
		cfg.Charset = DefaultCharset
	}

	if v, ok := fields["port"]; ok && v != nil {
		port, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(v)))
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("%w: invalid port %v", apperrors.ErrInvalidConnectionDescriptor, v)
		}
		cfg.Port = port
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: host is required", apperrors.ErrInvalidConnectionDescriptor)
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("%w: user is required", apperrors.ErrInvalidConnectionDescriptor)
	}

	return cfg, nil
}

func stringField(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}

// driverConfig builds the go-sql-driver configuration. Loopback hosts are
// rewritten when running in Docker.
func (c *Config) driverConfig(connectTimeout time.Duration) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(config.ResolveHostForDocker(c.Host), strconv.Itoa(c.Port))
	mc.DBName = c.Database
	mc.Params = map[string]string{"charset": c.Charset}
	mc.Timeout = connectTimeout
	return mc
}
