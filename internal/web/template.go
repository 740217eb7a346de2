package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/matrix-clock/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"duration": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		switch {
		case days > 0:
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		case h > 0:
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		case m > 0:
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"ago": func(d time.Duration, ok bool) string {
		if !ok {
			return "never"
		}
		return d.Truncate(time.Second).String() + " ago"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Matrix Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
pre.display { font-size: 2em; background: #111; color: #f80; padding: 0.3em 0.6em; }
pre.display.night { color: #800; }
.ok { color: green; }
.warn { color: orange; }
.err { color: red; }
</style>
</head>
<body>
<h1>Matrix Clock</h1>

<pre class="display{{if eq (printf "%s" .Clock.Mode.Period) "NIGHT"}} night{{end}}">{{.Clock.Text}}</pre>

<h2>Time</h2>
<table>
<tr><th>Local</th><td>{{.Clock.Local}}</td></tr>
<tr><th>Counter</th><td>{{.Clock.Counter}}</td></tr>
<tr><th>Mode</th><td>{{.Clock.Mode.Period}} (wake {{.Clock.Mode.WakeHour}}:00)</td></tr>
</table>

<h2>Sync</h2>
<table>
<tr><th>State</th><td class="{{if eq (printf "%s" .Sync.State) "IDLE"}}ok{{else}}warn{{end}}">{{.Sync.State}}</td></tr>
<tr><th>Consecutive failures</th><td class="{{if gt .Sync.Failures 0}}err{{else}}ok{{end}}">{{.Sync.Failures}} / {{.Config.Threshold}}</td></tr>
<tr><th>Last attempt</th><td>{{ago .SinceAttemptD .SinceAttemptOK}}</td></tr>
<tr><th>Last success</th><td>{{ago .SinceSuccessD .SinceSuccessOK}}</td></tr>
<tr><th>Attempts</th><td>{{.Sync.Counts.Attempts}} ({{.Sync.Counts.Successes}} ok, {{.Sync.Counts.Failures}} failed)</td></tr>
<tr><th>Radio resets</th><td>{{.Sync.Counts.Resets}}</td></tr>
{{if .LastEvent}}<tr><th>Last event</th><td>{{.LastEvent.Type}} {{if eq (printf "%s" .LastEvent.Type) "SYNCED"}}(jump {{.LastEvent.Jump}}s){{end}}</td></tr>{{end}}
</table>
<form method="post" action="/sync"><button type="submit">Sync now</button></form>

<h2>Sensor</h2>
<table>
{{if .Reading}}<tr><th>Temperature</th><td>{{printf "%.1f" .Reading.TemperatureC}} &deg;C</td></tr>
<tr><th>Humidity</th><td>{{printf "%.1f" .Reading.HumidityPct}} %</td></tr>{{end}}
<tr><th>Status</th><td class="{{if .SensorErr}}err{{else}}ok{{end}}">{{if .SensorErr}}{{.SensorErr}}{{else if .Reading}}ok{{else}}no reading yet{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}ok{{else}}err{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}none{{end}}</td></tr>
<tr><th>NTP server</th><td>{{.Config.NTPServer}}</td></tr>
<tr><th>Sync interval</th><td>{{.Config.SyncInterval}}</td></tr>
<tr><th>Uptime</th><td>{{duration .Uptime}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Template calls can't take the two-value returns directly.
	data := struct {
		status.Snapshot
		Uptime         time.Duration
		SinceAttemptD  time.Duration
		SinceAttemptOK bool
		SinceSuccessD  time.Duration
		SinceSuccessOK bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	data.SinceAttemptD, data.SinceAttemptOK = snap.SinceAttempt()
	data.SinceSuccessD, data.SinceSuccessOK = snap.SinceSuccess()
	return indexTmpl.Execute(w, data)
}
