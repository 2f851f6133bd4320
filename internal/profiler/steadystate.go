package profiler

import "log/slog"

// SetDiscontinuityParam closes out the discontinuity buckets and
// appends a DiscontinuityEntry to the running telemetry payload. Safe
// to call once per completed discontinuity transition.
func (p *Profiler) SetDiscontinuityParam() {
	p.ProfileEnd(BucketDiscoFirstFrame)
	p.ProfileEnd(BucketDiscoTotal)

	p.mu.Lock()
	total := p.buckets[BucketDiscoTotal].duration()
	flush := p.buckets[BucketDiscoFlush].duration()
	firstFrame := p.buckets[BucketDiscoFirstFrame].duration()
	p.buckets[BucketDiscoTotal] = bucket{}
	p.buckets[BucketDiscoFlush] = bucket{}
	p.buckets[BucketDiscoFirstFrame] = bucket{}
	p.mu.Unlock()

	entry := DiscontinuityEntry{
		Total:      total,
		Flush:      flush,
		FirstFrame: firstFrame,
		Diff:       total - (flush + firstFrame),
	}

	p.telemetryMu.Lock()
	p.telemetry.Discontinuities = append(p.telemetry.Discontinuities, entry)
	p.telemetryMu.Unlock()
}

// SetLatencyParam records the current latency/buffer/rate/bandwidth
// telemetry snapshot and flushes the accumulated rate-correction,
// bitrate-change, and buffer-change counters into the payload. Negative
// latency/buffer values mean "not applicable" and are omitted, matching
// the upstream's optional-field semantics.
func (p *Profiler) SetLatencyParam(latency, buffer, playbackRate, bw float64) {
	p.telemetryMu.Lock()
	defer p.telemetryMu.Unlock()

	if latency >= 0 {
		v := roundTo2dp(latency)
		p.telemetry.Latency = &v
	}
	if buffer >= 0 {
		v := roundTo2dp(buffer)
		p.telemetry.Buffer = &v
	}
	rate := roundTo2dp(playbackRate)
	p.telemetry.PlaybackRate = &rate
	if bw > 0 {
		p.telemetry.Bandwidth = &bw
	}

	p.mu.Lock()
	rtc, btc, bfc := p.rateCorrectionCount, p.bitrateChangeCount, p.bufferChangeCount
	p.rateCorrectionCount, p.bitrateChangeCount, p.bufferChangeCount = 0, 0, 0
	p.mu.Unlock()

	if rtc != 0 {
		p.telemetry.RateCorrectionCount = &rtc
	}
	if btc != 0 {
		p.telemetry.BitrateChangeCount = &btc
	}
	if bfc != 0 {
		p.telemetry.BufferChangeCount = &bfc
	}
}

// AddLLDLowBufferObject marks the LLD low-buffer array as started for
// this tune, and is a no-op once it has been. SetLLDLowBufferParam sets
// the same flag itself before its first append, so calling this first
// is not required.
func (p *Profiler) AddLLDLowBufferObject() {
	p.telemetryMu.Lock()
	p.lldLowBuffer = true
	p.telemetryMu.Unlock()
}

// SetLLDLowBufferParam appends one low-latency-DASH low-buffer sample.
func (p *Profiler) SetLLDLowBufferParam(latency, buffer, rate, bw, lowBufferCount float64) {
	p.telemetryMu.Lock()
	defer p.telemetryMu.Unlock()

	if !p.lldLowBuffer {
		p.lldLowBuffer = true
	}
	p.telemetry.LLDLowBuffer = append(p.telemetry.LLDLowBuffer, LLDLowBufferEntry{
		Latency:        roundTo2dp(latency),
		Buffer:         roundTo2dp(buffer),
		PlaybackRate:   roundTo2dp(rate),
		Bandwidth:      bw,
		LowBufferCount: lowBufferCount,
	})
}

// IncrementChangeCount bumps the named steady-state change counter;
// SetLatencyParam flushes and resets these on its next call.
func (p *Profiler) IncrementChangeCount(t CountType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch t {
	case CountRateCorrection:
		p.rateCorrectionCount++
	case CountBitrateChange:
		p.bitrateChangeCount++
	case CountBufferChange:
		p.bufferChangeCount++
	}
}

// GetTelemetryParam renders and logs the accumulated steady-state
// telemetry payload, then resets it for the next accumulation window.
func (p *Profiler) GetTelemetryParam() string {
	p.telemetryMu.Lock()
	defer p.telemetryMu.Unlock()

	s, err := p.telemetry.marshal()
	if err != nil {
		p.logger.Warn("failed to marshal steady-state telemetry", slog.String("error", err.Error()))
		s = ""
	} else {
		p.logger.Info("telemetry values", slog.String("payload", s))
	}

	p.telemetry = telemetry{}
	p.lldLowBuffer = false
	return s
}
