package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/invscat/internal/config"
	"github.com/san-kum/invscat/internal/experiment"
)

func (s Styles) row(label string, value any) string {
	var v string
	switch x := value.(type) {
	case string:
		v = x
	case complex128:
		v = fmt.Sprintf("%.6g", x)
	case float64:
		v = fmt.Sprintf("%.6g", x)
	default:
		v = fmt.Sprint(x)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render(label), s.Value.Render(v))
}

// RenderForward renders the forward demo of cfg.
func RenderForward(s Styles, cfg *config.Config, fwd *experiment.Forward) string {
	lines := []string{
		s.Header.Render("forward problem"),
		s.row("medium", fmt.Sprintf("n=%d a=%g q=%g k=%g", cfg.N, cfg.A, cfg.Q, cfg.K)),
		s.row("harmonics", cfg.Harmonics),
		s.row("alpha", fmt.Sprint(cfg.Alpha)),
		s.row("x", fmt.Sprint(cfg.X)),
		s.row("A(beta, alpha)", fwd.Amplitude),
		s.row("incident", fwd.Incident),
		s.row("u(x, alpha)", fwd.TotalField),
	}
	return s.Panel.Render(strings.Join(lines, "\n"))
}

// RenderReport renders the summary panel of a finished run.
func RenderReport(s Styles, cfg *config.Config, res *experiment.Result) string {
	opt := res.Optimization
	status := s.Good.Render("converged")
	if !opt.Converged {
		status = s.Warn.Render("not converged")
	}

	lines := []string{
		s.Header.Render("inverse scattering run"),
		s.row("medium", fmt.Sprintf("n=%d a=%g q=%g k=%g", cfg.N, cfg.A, cfg.Q, cfg.K)),
		s.row("mesh", fmt.Sprintf("%s, %d directions, %d annulus points", cfg.Mesh.Kind, res.Directions, res.Points)),
		s.row("probe", fmt.Sprintf("%s |M|=%g psi=%v", cfg.Probe.Kind, cfg.Probe.Magnitude, res.Probe.Psi)),
		"",
		s.row("method", fmt.Sprintf("%s (%s)", opt.Method, opt.Status)),
		s.row("status", status),
		s.row("J(start)", opt.F0),
		s.row("J(nu)", opt.F),
		s.row("J(0)", opt.FZero),
		s.row("|grad J|", opt.GradNorm),
		s.row("iterations", opt.Iterations),
		"",
		s.row("recovered", res.Recovered),
		s.row("reference", res.Reference),
		s.row("relative error", res.RelativeError),
		s.row("elapsed", res.Elapsed.String()),
	}
	if opt.Rank > 0 {
		lines = append(lines, s.row("rank / cond", fmt.Sprintf("%d / %.3g", opt.Rank, opt.Cond)))
	}
	if res.Forward != nil {
		lines = append(lines, "",
			s.row("A(beta, alpha)", res.Forward.Amplitude),
			s.row("u(x, alpha)", res.Forward.TotalField))
	}
	return s.Panel.Render(strings.Join(lines, "\n"))
}

// RenderSweep renders one line per resolution.
func RenderSweep(s Styles, points []experiment.SweepPoint) string {
	lines := []string{s.Header.Render("resolution sweep")}
	lines = append(lines, s.Hint.Render(fmt.Sprintf("%-6s %6s %7s %14s %12s", "res", "dirs", "points", "rel. error", "J(nu)")))
	for _, p := range points {
		lines = append(lines, s.Value.Render(fmt.Sprintf("%-6d %6d %7d %14.6g %12.4g",
			p.Resolution, p.Directions, p.Points, p.RelativeError, p.Objective)))
	}
	return s.Panel.Render(strings.Join(lines, "\n"))
}
