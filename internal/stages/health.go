package stages

// Health summarizes whether a stage can run.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// HealthCheck reports which stages have their collaborators wired.
func (r *Runner) HealthCheck() []Health {
	check := func(name string, ok bool, detail string) Health {
		if ok {
			return Healthy(name)
		}
		return Unhealthy(name, detail)
	}
	return []Health{
		check(StageRewrite, r.rewriter != nil, "llm api key not configured"),
		check(StageNarrate, r.synthesizer != nil, "elevenlabs api key not configured"),
		check(StageCompose, r.composer != nil, "ffmpeg unavailable"),
		check(StageSlideshow, r.composer != nil, "ffmpeg unavailable"),
		Healthy(StageFastForward),
	}
}
