package service

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	dservice "github.com/echovale/cubederby/internal/derby/service"
	"github.com/echovale/cubederby/internal/mcp/domain"
)

func registerDerbyTools(mcpServer *mcp.Server, svc *dservice.Service) {
	mcp.AddTool(mcpServer, domain.RunMatchTool(), domain.RunMatchHandler(svc))
	mcp.AddTool(mcpServer, domain.RunBatchTool(), domain.RunBatchHandler(svc))
	mcp.AddTool(mcpServer, domain.ListCubesTool(), domain.ListCubesHandler(svc))
}
