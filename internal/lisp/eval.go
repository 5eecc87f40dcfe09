package lisp

import "fmt"

// Eval evaluates expr in env against the interpreter owning heap. Errors
// are plain Go errors that bubble straight up through the call stack —
// the replacement for the C original's setjmp/longjmp unwind (spec.md
// §9 "typed result enums that bubble up through the evaluator").
func Eval(eng *Engine, env *Env, expr Value) (Value, error) {
	eng.yieldIfDue()

	switch expr.kind {
	case KindInt, KindBool, KindString, KindNil, KindClosure, KindPrimitive:
		return expr, nil
	case KindSymbol:
		if v, ok := env.Get(expr.s); ok {
			return v, nil
		}
		return Nil(), fmt.Errorf("lisp: unbound symbol %q", expr.s)
	case KindCell:
		return evalList(eng, env, expr)
	default:
		return Nil(), fmt.Errorf("lisp: cannot evaluate value of kind %v", expr.kind)
	}
}

func evalList(eng *Engine, env *Env, expr Value) (Value, error) {
	head := expr.cell.Car
	if head.kind == KindSymbol {
		if v, handled, err := evalSpecialForm(eng, env, head.s, expr.cell.Cdr); handled {
			return v, err
		}
	}

	fn, err := Eval(eng, env, head)
	if err != nil {
		return Nil(), err
	}

	var args []Value
	rest := expr.cell.Cdr
	for rest.kind == KindCell {
		v, err := Eval(eng, env, rest.cell.Car)
		if err != nil {
			return Nil(), err
		}
		args = append(args, v)
		rest = rest.cell.Cdr
	}

	return Apply(eng, fn, args)
}

// Apply invokes fn (a Closure or Primitive) against already-evaluated
// args.
func Apply(eng *Engine, fn Value, args []Value) (Value, error) {
	switch fn.kind {
	case KindPrimitive:
		p := fn.prim
		if err := assertDescribedArgs(p, args); err != nil {
			return Nil(), err
		}
		return p.Invoke(eng, args)
	case KindClosure:
		c := fn.clo
		if len(args) != len(c.Params) {
			return Nil(), fmt.Errorf("lisp: closure expected %d args, got %d", len(c.Params), len(args))
		}
		if err := eng.charge(envSize); err != nil {
			return Nil(), err
		}
		scope := c.Env.Child()
		for i, name := range c.Params {
			if err := eng.charge(bindingSize); err != nil {
				return Nil(), err
			}
			scope.Define(name, args[i])
		}
		return Eval(eng, scope, c.Body)
	default:
		return Nil(), fmt.Errorf("lisp: cannot apply non-function value of kind %v", fn.kind)
	}
}

// evalSpecialForm handles the dialect's fixed set of special forms.
// handled is false for an ordinary (non-special-form) call.
func evalSpecialForm(eng *Engine, env *Env, op string, rest Value) (Value, bool, error) {
	switch op {
	case "quote":
		return rest.cell.Car, true, nil
	case "if":
		args := Slice(rest)
		if len(args) < 2 {
			return Nil(), true, fmt.Errorf("lisp: if requires at least a condition and a then-branch")
		}
		cond, err := Eval(eng, env, args[0])
		if err != nil {
			return Nil(), true, err
		}
		if cond.IsTruthy() {
			v, err := Eval(eng, env, args[1])
			return v, true, err
		}
		if len(args) >= 3 {
			v, err := Eval(eng, env, args[2])
			return v, true, err
		}
		return Nil(), true, nil
	case "define":
		args := Slice(rest)
		if len(args) != 2 || args[0].kind != KindSymbol {
			return Nil(), true, fmt.Errorf("lisp: define requires (define symbol value)")
		}
		v, err := Eval(eng, env, args[1])
		if err != nil {
			return Nil(), true, err
		}
		if err := eng.charge(bindingSize); err != nil {
			return Nil(), true, err
		}
		env.Define(args[0].s, v)
		return v, true, nil
	case "set!":
		args := Slice(rest)
		if len(args) != 2 || args[0].kind != KindSymbol {
			return Nil(), true, fmt.Errorf("lisp: set! requires (set! symbol value)")
		}
		v, err := Eval(eng, env, args[1])
		if err != nil {
			return Nil(), true, err
		}
		env.Set(args[0].s, v)
		return v, true, nil
	case "lambda":
		args := Slice(rest)
		if len(args) < 2 {
			return Nil(), true, fmt.Errorf("lisp: lambda requires a parameter list and a body")
		}
		var params []string
		Each(args[0], func(p Value) { params = append(params, p.s) })
		body := args[1]
		if len(args) > 2 {
			if err := eng.charge(cellSize); err != nil {
				return Nil(), true, err
			}
			body = Cons(Symbol("begin"), List(args[1:]...))
		}
		if err := eng.charge(closureSize); err != nil {
			return Nil(), true, err
		}
		return ClosureVal(&Closure{Params: params, Body: body, Env: env}), true, nil
	case "begin":
		var result Value
		var err error
		Each(rest, func(form Value) {
			if err != nil {
				return
			}
			result, err = Eval(eng, env, form)
		})
		return result, true, err
	case "task":
		// task does not evaluate its body argument — it stores the raw
		// form under #t_obj for the eval task to re-enter later (spec.md
		// §4.G). Evaluating it eagerly here would run it once immediately
		// instead of scheduling it.
		args := Slice(rest)
		if len(args) != 3 {
			return Nil(), true, fmt.Errorf("lisp: task requires (task times ms body)")
		}
		timesV, err := Eval(eng, env, args[0])
		if err != nil {
			return Nil(), true, err
		}
		msV, err := Eval(eng, env, args[1])
		if err != nil {
			return Nil(), true, err
		}
		if err := eng.charge(bindingSize); err != nil {
			return Nil(), true, err
		}
		eng.env.Define("#t_obj", args[2])
		// times < 0 is the dialect's own "run forever" spelling (spec.md
		// §8 scenario 4's literal `(task -1 1000 ...)`); Task.Attach's own
		// convention is repeats==0 for infinite, so translate here rather
		// than overload the scheduler's public API.
		times := timesV.AsInt()
		var repeats int32
		if times < 0 {
			repeats = 0
		} else {
			repeats = int32(times)
		}
		if err := eng.evalTask.Attach(uint32(msV.AsInt()), repeats); err != nil {
			return Bool(false), true, nil
		}
		return Bool(true), true, nil
	case "let":
		args := Slice(rest)
		if len(args) < 2 {
			return Nil(), true, fmt.Errorf("lisp: let requires a binding list and a body")
		}
		if err := eng.charge(envSize); err != nil {
			return Nil(), true, err
		}
		scope := env.Child()
		var bindErr error
		Each(args[0], func(binding Value) {
			if bindErr != nil {
				return
			}
			pair := Slice(binding)
			if len(pair) != 2 || pair[0].kind != KindSymbol {
				bindErr = fmt.Errorf("lisp: malformed let binding")
				return
			}
			v, err := Eval(eng, env, pair[1])
			if err != nil {
				bindErr = err
				return
			}
			if err := eng.charge(bindingSize); err != nil {
				bindErr = err
				return
			}
			scope.Define(pair[0].s, v)
		})
		if bindErr != nil {
			return Nil(), true, bindErr
		}
		body := args[1]
		if len(args) > 2 {
			if err := eng.charge(cellSize); err != nil {
				return Nil(), true, err
			}
			body = Cons(Symbol("begin"), List(args[1:]...))
		}
		v, err := Eval(eng, scope, body)
		return v, true, err
	default:
		return Nil(), false, nil
	}
}
