package main

import (
	"strings"
	"sync"

	"github.com/silogos/Antree-sub001/internal/api"
	"github.com/silogos/Antree-sub001/internal/config"
)

type commandContext struct {
	configFlag *string
	bindFlag   *string
	tokenFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, bindFlag, tokenFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		bindFlag:   bindFlag,
		tokenFlag:  tokenFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// client builds an API client from flags, falling back to the configured
// bind address and token.
func (c *commandContext) client() (*api.Client, error) {
	bind := ""
	token := ""
	if c.bindFlag != nil {
		bind = strings.TrimSpace(*c.bindFlag)
	}
	if c.tokenFlag != nil {
		token = strings.TrimSpace(*c.tokenFlag)
	}
	if bind == "" || token == "" {
		cfg, err := c.ensureConfig()
		if err != nil {
			return nil, err
		}
		if bind == "" {
			bind = cfg.Paths.APIBind
		}
		if token == "" {
			token = cfg.Paths.APIToken
		}
	}
	return api.NewClient(bind, token)
}
