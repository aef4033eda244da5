package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// mrelayCollector implements prometheus.Collector over the loaded
// configuration. The configuration is immutable, so every scrape walks it
// without locking.
type mrelayCollector struct {
	srv *Server

	protocolInfo       *prometheus.Desc
	tables             *prometheus.Desc
	tableEntries       *prometheus.Desc
	instances          *prometheus.Desc
	instanceInterfaces *prometheus.Desc
	resolvedInterfaces *prometheus.Desc
}

func newCollector(srv *Server) *mrelayCollector {
	return &mrelayCollector{
		srv: srv,

		protocolInfo: prometheus.NewDesc(
			"mrelay_protocol_info",
			"Group membership protocol in use. Always 1.",
			[]string{"protocol"}, nil,
		),
		tables: prometheus.NewDesc(
			"mrelay_tables",
			"Number of address tables in the configuration.",
			nil, nil,
		),
		tableEntries: prometheus.NewDesc(
			"mrelay_table_entries",
			"Number of entries per address table.",
			[]string{"table"}, nil,
		),
		instances: prometheus.NewDesc(
			"mrelay_instances",
			"Number of proxy instances in the configuration.",
			nil, nil,
		),
		instanceInterfaces: prometheus.NewDesc(
			"mrelay_instance_interfaces",
			"Number of declared interfaces per instance.",
			[]string{"instance", "role"}, nil,
		),
		resolvedInterfaces: prometheus.NewDesc(
			"mrelay_resolved_interfaces",
			"Number of resolved OS interfaces per instance.",
			[]string{"instance"}, nil,
		),
	}
}

func (c *mrelayCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.protocolInfo
	ch <- c.tables
	ch <- c.tableEntries
	ch <- c.instances
	ch <- c.instanceInterfaces
	ch <- c.resolvedInterfaces
}

func (c *mrelayCollector) Collect(ch chan<- prometheus.Metric) {
	conf := c.srv.conf

	ch <- prometheus.MustNewConstMetric(c.protocolInfo, prometheus.GaugeValue,
		1, conf.Protocol().String())

	ch <- prometheus.MustNewConstMetric(c.tables, prometheus.GaugeValue,
		float64(conf.Tables().Len()))
	for _, t := range conf.Tables().All() {
		ch <- prometheus.MustNewConstMetric(c.tableEntries, prometheus.GaugeValue,
			float64(len(t.Entries)), t.Name)
	}

	ch <- prometheus.MustNewConstMetric(c.instances, prometheus.GaugeValue,
		float64(conf.Instances().Len()))
	for _, inst := range conf.Instances().All() {
		ch <- prometheus.MustNewConstMetric(c.instanceInterfaces, prometheus.GaugeValue,
			float64(len(inst.Downstreams)), inst.Name, "downstream")
		ch <- prometheus.MustNewConstMetric(c.instanceInterfaces, prometheus.GaugeValue,
			float64(len(inst.Upstreams)), inst.Name, "upstream")
		if set, ok := conf.ResolvedInterfaces(inst.Name); ok {
			ch <- prometheus.MustNewConstMetric(c.resolvedInterfaces, prometheus.GaugeValue,
				float64(set.Len()), inst.Name)
		}
	}
}
