package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/carwash-monitor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"minutes": func(seconds float64) string {
		return fmt.Sprintf("%.1f", seconds/60)
	},
	"money": func(v float64) string {
		if v < 0 {
			return fmt.Sprintf("-$%.2f", -v)
		}
		return fmt.Sprintf("$%.2f", v)
	},
	"onOff": func(running bool) string {
		if running {
			return "on"
		}
		return "off"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>Car Wash Bays</title>
<style>
body { font-family: monospace; max-width: 800px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.total { font-weight: bold; }
</style>
</head>
<body>
<h1>Car Wash Bays</h1>

<h2>Live</h2>
<table>
<tr><th>Bay</th><th>Timer</th><th>Pump</th><th>Timer (min)</th><th>Pump (min)</th></tr>
{{range .Report.Bays}}<tr><td><a href="/bays/{{.Bay}}.json">{{.Bay}}</a></td><td class="{{onOff .TimerRunning}}">{{onOff .TimerRunning}}</td><td class="{{onOff .PumpRunning}}">{{onOff .PumpRunning}}</td><td>{{minutes .TimerRuntime}}</td><td>{{minutes .PumpRuntime}}</td></tr>
{{end}}</table>

<h2>Totals</h2>
<table>
<tr><th>Bay</th><th>Sessions</th><th>Timer (min)</th><th>Pump (min)</th><th>Maintenance</th><th>Gross</th><th>Net</th></tr>
{{range .Report.Bays}}<tr><td>{{.Bay}}</td><td>{{.Sessions}}</td><td>{{minutes .TimerSeconds}}</td><td>{{minutes .PumpSeconds}}</td><td>{{.MaintenanceInserts}} ({{money .MaintenanceValue}})</td><td>{{money .GrossRevenue}}</td><td>{{money .NetRevenue}}</td></tr>
{{end}}<tr class="total"><td colspan="6">Total net revenue</td><td>{{money .Report.TotalNetRevenue}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>MQTT</th><td class="{{if .Status.MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .Status.MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.Status.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sessions since start</th><td>{{.Status.Counts.Sessions}}</td></tr>
<tr><th>Poll</th><td>{{.Status.Config.PollMs}}ms</td></tr>
<tr><th>Reboot / wipe hold</th><td>{{.Status.Watchdog.Reboot}} / {{.Status.Watchdog.Wipe}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/status.json">daemon status</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, report Report, snap status.Snapshot) error {
	data := struct {
		Report Report
		Status status.Snapshot
		Uptime time.Duration
	}{
		Report: report,
		Status: snap,
		Uptime: snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
