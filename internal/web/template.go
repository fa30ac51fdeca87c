package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/fan-controller/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime":  formatUptime,
	"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
	"celsius": func(c float64) string { return fmt.Sprintf("%.1f°C", c) },
}).Parse(indexHTML))

// formatUptime renders d as "3d 4h 5m 6s", dropping leading zero units.
func formatUptime(d time.Duration) string {
	total := int64(d / time.Second)
	units := []struct {
		n      int64
		suffix string
	}{
		{total / 86400, "d"},
		{total / 3600 % 24, "h"},
		{total / 60 % 60, "m"},
		{total % 60, "s"},
	}
	out := ""
	for i, u := range units {
		if out == "" && u.n == 0 && i < len(units)-1 {
			continue
		}
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%d%s", u.n, u.suffix)
	}
	return out
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>fan-controller {{percent .Fraction}}</title>
<style>
body { font: 14px/1.4 ui-monospace, monospace; max-width: 40em; margin: 1.5em auto; padding: 0 1em; background: #fafafa; }
h1 { font-size: 1.3em; margin-bottom: 0.2em; }
h2 { font-size: 1em; text-transform: uppercase; color: #555; margin-top: 1.5em; }
table { width: 100%; border-spacing: 0; }
th, td { text-align: left; padding: 3px 6px; }
th { width: 35%; font-weight: normal; color: #555; }
tr:nth-child(odd) { background: #f0f0f0; }
.ok { color: #1a7f37; }
.bad { color: #cf222e; font-weight: bold; }
.muted { color: #999; }
.banner { background: #cf222e; color: #fff; padding: 0.5em 1em; }
</style>
</head>
<body>
<h1>fan-controller</h1>
{{if .Degraded}}<p class="banner" id="degraded">DEGRADED: running without a valid temperature ({{.Config.Policy}} policy)</p>{{end}}

<h2>Control</h2>
<table>
<tr><th>Temperature</th><td>{{if .HasReading}}{{celsius .Temperature}}{{else}}<span class="muted">no reading</span>{{end}} / target {{celsius .Config.TargetC}}</td></tr>
<tr><th>Sensor</th><td id="sensor" class="{{if .SensorOK}}ok{{else if eq .Ticks 0}}muted{{else}}bad{{end}}">{{if .SensorOK}}OK{{else if eq .Ticks 0}}waiting{{else}}FAULT: {{.SensorError}}{{end}}</td></tr>
<tr><th>Sensor faults</th><td>{{.SensorFaults}}</td></tr>
<tr><th>Fan output</th><td id="fraction">{{percent .Fraction}}</td></tr>
<tr><th>Duty (d)</th><td>{{printf "%.2f" .Duty}}</td></tr>
<tr><th>Ticks</th><td>{{.Ticks}}</td></tr>
</table>

<h2>PWM</h2>
<table>
<tr><th>Frequency</th><td>{{.Config.FrequencyHz}} Hz</td></tr>
<tr><th>Periods</th><td>{{.PWMPeriods}}</td></tr>
<tr><th>Real-time</th><td class="{{if .RealtimeOK}}ok{{else}}bad{{end}}">{{if .RealtimeOK}}SCHED_FIFO {{.Config.Priority}}{{else if .RealtimeError}}{{.RealtimeError}}{{else}}disabled{{end}}</td></tr>
<tr><th>Line</th><td>{{.Config.Chip}}:{{.Config.Line}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT alerts</th><td class="{{if .MQTTConnected}}ok{{else if .Config.Broker}}bad{{else}}muted{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Step</th><td>{{.Config.Step}}</td></tr>
<tr><th>Min duty</th><td>{{percent .Config.MinDuty}}</td></tr>
<tr><th>On sensor error</th><td>{{.Config.Policy}}</td></tr>
<tr><th>Sensor path</th><td>{{.Config.SensorPath}}</td></tr>
</table>

<p class="muted"><a href="/index.json">index.json</a> &middot; <a href="/healthz">healthz</a></p>
</body>
</html>
`

// page flattens the Snapshot methods the template reads into fields.
type page struct {
	status.Snapshot
	Uptime   time.Duration
	Degraded bool
}

func renderHTML(w io.Writer, snap status.Snapshot) error {
	return indexTmpl.Execute(w, page{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Degraded: snap.Degraded(),
	})
}
