package sim

// flowStartEvent transitions a sending flow from Idle to Sending at its
// configured start time.
type flowStartEvent struct {
	time Millis
	flow FlowID
}

func (e *flowStartEvent) Timestamp() Millis { return e.time }
func (e *flowStartEvent) Execute(env *Environment) {
	env.SendFlows[e.flow].Start(env)
}

// flowSendDataEvent emits one paced Data packet within the current batch.
type flowSendDataEvent struct {
	time Millis
	flow FlowID
	seq  int64
}

func (e *flowSendDataEvent) Timestamp() Millis { return e.time }
func (e *flowSendDataEvent) Execute(env *Environment) {
	env.SendFlows[e.flow].sendData(env, e.seq)
}

// flowRetransmitEvent fires the Go-Back-N retransmit timeout. epoch ties
// it to the batch it was armed for; if the flow has since moved to a
// later batch (or finished), this fire is stale and a no-op — the
// idiomatic-Go equivalent of detaching a timer callback.
type flowRetransmitEvent struct {
	time  Millis
	flow  FlowID
	epoch int64
}

func (e *flowRetransmitEvent) Timestamp() Millis { return e.time }
func (e *flowRetransmitEvent) Execute(env *Environment) {
	f := env.SendFlows[e.flow]
	if f.State != FlowSending || f.batchEpoch != e.epoch {
		return
	}
	f.CC.OnTimeout(env.SendFlows[e.flow])
	f.retransmitBatch(env)
}

// flowFastTimerEvent drives FAST TCP's periodic window recomputation
// while the flow is in the Sending state.
type flowFastTimerEvent struct {
	time Millis
	flow FlowID
}

func (e *flowFastTimerEvent) Timestamp() Millis { return e.time }
func (e *flowFastTimerEvent) Execute(env *Environment) {
	f := env.SendFlows[e.flow]
	if !f.fastActive || f.State != FlowSending {
		f.fastActive = false
		return
	}
	f.CC.FastUpdate(f)
	interval, _ := f.CC.FastInterval()
	env.Clock.Schedule(&flowFastTimerEvent{time: env.Clock.Now() + interval, flow: e.flow})
}

// flowFinRetransmitEvent resends the Fin if its ack hasn't arrived within
// the retransmit timeout. epoch detaches stale fires the same way
// flowRetransmitEvent does for the data phase.
type flowFinRetransmitEvent struct {
	time  Millis
	flow  FlowID
	epoch int64
}

func (e *flowFinRetransmitEvent) Timestamp() Millis { return e.time }
func (e *flowFinRetransmitEvent) Execute(env *Environment) {
	f := env.SendFlows[e.flow]
	if f.State != FlowFinishing || f.finRetransmitEpoch != e.epoch {
		return
	}
	f.sendFin(env)
}
