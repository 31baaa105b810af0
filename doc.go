/*
Package looper runs live audio looping pipelines.

Concept

A pipeline is declared in a project document as an ordered list of
devices. Every device is a block of one of three kinds:

    Source - the origin of signal, e.g. microphone or metronome;
    Transformer - the manipulator of the signal, e.g. loop or mixer;
    Sink - the destination of signal, e.g. speakers or recorder.

Blocks exchange fixed-size buffers through named channels. A block which
declares an output channel creates it, blocks which declare it as an input
bind to it. Channels must be created before they're bound, so the order
of declaration matters.

Execution

Runner executes the pipeline in a single goroutine, one cycle per buffer:

    poll keyboard;
    read every Source;
    transform every Transformer in declared order;
    write every Sink;
    step the tempo clock.

Blocks are allocated in the order sources, transformers, sinks. If any
allocation fails, already allocated blocks are released and nothing runs.
Any block error during the cycle aborts the run.

Blocks

Block types are registered in block.Registry by name. The modules package
registers all built-in blocks:

    Loop, Looper - records the input segment and replays it;
    Combiner - sums inputs;
    Toggle - gates the signal by segments;
    LowPass - IIR low-pass filter;
    Metronome - clicks on every beat;
    Instrument - plays clips on key presses;
    Recorder - saves the input segment to a file;
    InputDevice, OutputDevice - audio hardware.
*/
package looper
