package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/kbukum/iotmarket/component"
	"github.com/kbukum/iotmarket/host"
	"github.com/kbukum/iotmarket/model"
)

// ExplorerPath is where the explorer is mounted, relative to the API root.
const ExplorerPath = "/explorer"

// Explorer serves a JSON description of the API: models, their fields,
// datasources and generated routes. It reads the host on every request, so
// models registered after mounting still show up.
type Explorer struct {
	host *host.Host
}

// NewExplorer creates the explorer for h.
func NewExplorer(h *host.Host) *Explorer {
	return &Explorer{host: h}
}

// Name identifies the mount.
func (e *Explorer) Name() string { return "explorer" }

// Mount registers the explorer route.
func (e *Explorer) Mount(r gin.IRouter) {
	r.GET("", e.describe)
}

// ModelInfo describes one registered model.
type ModelInfo struct {
	Name       string            `json:"name"`
	Plural     string            `json:"plural"`
	DataSource string            `json:"dataSource"`
	Public     bool              `json:"public"`
	Fields     []model.Field     `json:"fields"`
	Routes     []component.Route `json:"routes,omitempty"`
}

// DataSourceInfo describes one attached datasource.
type DataSourceInfo struct {
	Name      string `json:"name"`
	Connector string `json:"connector"`
	Details   string `json:"details"`
}

// Description is the explorer document.
type Description struct {
	RestAPIRoot string           `json:"restApiRoot"`
	Models      []ModelInfo      `json:"models"`
	DataSources []DataSourceInfo `json:"dataSources"`
}

// Describe builds the explorer document for h.
func Describe(h *host.Host) Description {
	root := cast.ToString(h.Get(host.KeyRestAPIRoot))
	d := Description{
		RestAPIRoot: root,
		Models:      []ModelInfo{},
		DataSources: []DataSourceInfo{},
	}
	for _, reg := range h.Models() {
		d.Models = append(d.Models, ModelInfo{
			Name:       reg.Name(),
			Plural:     reg.Definition.Plural,
			DataSource: reg.DataSource,
			Public:     reg.Public,
			Fields:     reg.Definition.Fields,
			Routes:     Routes(root, reg),
		})
	}
	for _, ds := range h.DataSources() {
		d.DataSources = append(d.DataSources, DataSourceInfo{
			Name:      ds.Name(),
			Connector: ds.Connector(),
			Details:   ds.Describe().Details,
		})
	}
	return d
}

func (e *Explorer) describe(c *gin.Context) {
	RespondOK(c, Describe(e.host))
}
