package main

import (
	"os"

	"github.com/grafana/grafana-plugin-sdk-go/backend/datasource"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"

	"metricore-grafana-plugin/pkg/plugin"
)

func main() {
	// Start listening to requests sent from Grafana. This call is blocking and
	// won't finish until Grafana shuts down the process. Manage handles the
	// instance life cycle: NewDatasource runs per configured datasource, and
	// Dispose runs whenever its settings change.
	if err := datasource.Manage("metricore-datasource", plugin.NewDatasource, datasource.ManageOpts{}); err != nil {
		log.DefaultLogger.Error(err.Error())
		os.Exit(1)
	}
}
