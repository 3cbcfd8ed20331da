package tracing

import (
	"fmt"
	"reflect"

	"github.com/grapnel-io/grapnel/hooks"
)

// CollectTrace attaches a tracer to an engine. Chain invocations and
// middleware steps observed on the engine are reported to the tracer as
// tasks. Attaching the same tracer to the same engine twice panics.
func CollectTrace(
	engine *hooks.Engine,
	timeTeller TimeTeller,
	tracer Tracer,
) {
	for _, o := range engine.Observers() {
		attached, ok := o.(*chainObserver)
		if ok && attached.tracer == tracer {
			panic(fmt.Sprintf("engine already has tracer %s",
				reflect.TypeOf(tracer)))
		}
	}

	h := &chainObserver{timeTeller: timeTeller, tracer: tracer}
	engine.AcceptObserver(h)
}

// chainObserver converts engine observations into tracer calls.
type chainObserver struct {
	timeTeller TimeTeller
	tracer     Tracer
}

func (o *chainObserver) Observe(ctx hooks.ObsCtx) {
	switch ctx.Pos {
	case hooks.ObsPosChainStart:
		info := mustChainInfo(ctx.Item)
		o.tracer.StartTask(Task{
			ID:        info.ID,
			Kind:      TaskKindChain,
			What:      info.Hook,
			Location:  info.Flavor,
			StartTime: o.timeTeller.Now(),
		})
	case hooks.ObsPosChainEnd:
		info := mustChainInfo(ctx.Item)
		task := Task{
			ID:      info.ID,
			Kind:    TaskKindChain,
			EndTime: o.timeTeller.Now(),
		}
		if ctx.Err != nil {
			task.Error = ctx.Err.Error()
		}
		o.tracer.EndTask(task)
	case hooks.ObsPosStepStart:
		step := mustStepInfo(ctx.Item)
		o.tracer.StartTask(Task{
			ID:        stepTaskID(step),
			ParentID:  step.ChainID,
			Kind:      TaskKindStep,
			What:      step.Hook.String(),
			Location:  step.Middleware,
			StartTime: o.timeTeller.Now(),
		})
	case hooks.ObsPosStepEnd:
		step := mustStepInfo(ctx.Item)
		task := Task{
			ID:      stepTaskID(step),
			Kind:    TaskKindStep,
			EndTime: o.timeTeller.Now(),
		}
		if ctx.Err != nil {
			task.Error = ctx.Err.Error()
		}
		o.tracer.EndTask(task)
	}
}

func stepTaskID(step hooks.StepInfo) string {
	return fmt.Sprintf("%s/%s/%d", step.ChainID, step.Hook, step.Index)
}

func mustChainInfo(item any) hooks.ChainInfo {
	info, ok := item.(hooks.ChainInfo)
	if !ok {
		panic(fmt.Sprintf(
			"chain observation carries %s, not ChainInfo",
			reflect.TypeOf(item)))
	}

	return info
}

func mustStepInfo(item any) hooks.StepInfo {
	step, ok := item.(hooks.StepInfo)
	if !ok {
		panic(fmt.Sprintf(
			"step observation carries %s, not StepInfo",
			reflect.TypeOf(item)))
	}

	return step
}
